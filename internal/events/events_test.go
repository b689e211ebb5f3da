package events

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Publish(subject string, data interface{}) error {
	args := m.Called(subject, data)
	return args.Error(0)
}

func (m *mockClient) Close() {}

func TestSubjectsLiveUnderStream(t *testing.T) {
	id := "abc"
	for _, s := range []string{
		SubjectMatrixCreated(id),
		SubjectMatrixUpdated(id),
		SubjectMatrixDeleted(id),
		SubjectMatrixShared(id),
		SubjectMatrixUnshared(id),
		SubjectCriteriaChanged(id),
		SubjectOptionsChanged(id),
		SubjectScoresChanged(id),
		SubjectMatrixEvaluated(id),
	} {
		assert.Regexp(t, `^tally\.matrix\.abc\.`, s)
	}
	assert.Equal(t, "tally.matrix.abc.criteria.changed", SubjectCriteriaChanged(id))
}

func TestEmitNilClient(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(nil, nil, SubjectMatrixCreated("x"), MatrixEvent{})
	})
}

func TestEmitSwallowsErrors(t *testing.T) {
	c := new(mockClient)
	ev := MatrixEvent{MatrixID: "x"}
	c.On("Publish", "tally.matrix.x.created", ev).Return(errors.New("down"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NotPanics(t, func() {
		Emit(c, logger, SubjectMatrixCreated("x"), ev)
	})
	c.AssertExpectations(t)
}
