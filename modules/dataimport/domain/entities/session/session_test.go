package session_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/record"
	"github.com/buildgrid-io/buildgrid/modules/dataimport/domain/entities/session"
)

func newSession() session.Session {
	return session.New(uuid.New(), "contacts.csv", 64, "csv", record.Rows{
		Headers: []string{"Name"},
		Records: []record.RawRow{{"Name": "John"}},
	})
}

func TestStatus_ForwardPath(t *testing.T) {
	t.Parallel()
	s := newSession()
	require.Equal(t, session.StatusUpload, s.Status())

	for _, next := range []session.Status{
		session.StatusAnalyzing,
		session.StatusMapped,
		session.StatusValidated,
		session.StatusDuplicatesPending,
		session.StatusImporting,
		session.StatusCompleted,
	} {
		var err error
		s, err = s.Transition(next)
		require.NoError(t, err, "transition to %s", next)
	}
	assert.True(t, s.Status().IsTerminal())
}

func TestStatus_NoBackwardTransitions(t *testing.T) {
	t.Parallel()
	s := newSession()
	s, err := s.Transition(session.StatusAnalyzing)
	require.NoError(t, err)
	s, err = s.Transition(session.StatusMapped)
	require.NoError(t, err)

	_, err = s.Transition(session.StatusAnalyzing)
	require.ErrorIs(t, err, session.ErrInvalidTransition)
	_, err = s.Transition(session.StatusUpload)
	require.ErrorIs(t, err, session.ErrInvalidTransition)
}

// A failed analysis is the one sanctioned revert: analyzing back to upload.
func TestStatus_AnalyzingMayRevertToUpload(t *testing.T) {
	t.Parallel()
	s := newSession()
	s, err := s.Transition(session.StatusAnalyzing)
	require.NoError(t, err)

	s, err = s.Transition(session.StatusUpload)
	require.NoError(t, err)
	assert.Equal(t, session.StatusUpload, s.Status())
}

func TestStatus_CancellableFromAnyNonTerminalState(t *testing.T) {
	t.Parallel()
	for _, status := range []session.Status{
		session.StatusUpload,
		session.StatusAnalyzing,
		session.StatusMapped,
		session.StatusValidated,
		session.StatusDuplicatesPending,
		session.StatusImporting,
	} {
		assert.True(t, status.CanTransitionTo(session.StatusCancelled), "from %s", status)
	}
	for _, status := range []session.Status{
		session.StatusCompleted,
		session.StatusCompletedWithErrors,
		session.StatusCancelled,
	} {
		assert.False(t, status.CanTransitionTo(session.StatusCancelled), "from %s", status)
	}
}

func TestSession_SkippingStatesIsRejected(t *testing.T) {
	t.Parallel()
	s := newSession()

	_, err := s.Transition(session.StatusImporting)
	require.ErrorIs(t, err, session.ErrInvalidTransition)
	_, err = s.Transition(session.StatusCompleted)
	require.ErrorIs(t, err, session.ErrInvalidTransition)
}

func TestSession_Preview(t *testing.T) {
	t.Parallel()
	s := newSession()

	assert.Len(t, s.Preview(5), 1)
	assert.Len(t, s.Preview(0), 0)
}
