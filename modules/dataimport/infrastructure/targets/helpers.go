package targets

import (
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
)

func fieldStr(rec record.ValidatedRecord, label string) string {
	if v, ok := rec.Fields[label]; ok {
		return v.Str
	}
	return ""
}
