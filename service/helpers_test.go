package service

import (
	"context"
	"fmt"
	"testing"

	"mahjongbot/models"

	"github.com/stretchr/testify/mock"
)

const testGroupID = "C-group-1"

// newMockUoW returns a unit of work expecting Begin and Rollback
func newMockUoW(ctx context.Context) *MockUnitOfWork {
	uow := NewMockUnitOfWork()
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	return uow
}

// newFactory returns a factory handing out the given units of work once each, in order
func newFactory(units ...*MockUnitOfWork) *MockUnitOfWorkFactory {
	factory := new(MockUnitOfWorkFactory)
	for _, uow := range units {
		factory.On("Create").Return(uow).Once()
	}
	return factory
}

func testSession(status models.SessionStatus) *models.Session {
	return &models.Session{
		ID:                42,
		GroupID:           testGroupID,
		Mode:              "台麻",
		PerPoint:          10,
		BaseScore:         30,
		CollectsDealerFee: true,
		Status:            status,
	}
}

// seated returns n participants in seats 1..n without winds
func seated(n int) []*models.Participant {
	participants := make([]*models.Participant, n)
	for i := 0; i < n; i++ {
		participants[i] = &models.Participant{
			ID:             int64(100 + i + 1),
			SessionID:      42,
			ExternalUserID: fmt.Sprintf("U%d", i+1),
			Nickname:       fmt.Sprintf("玩家%d", i+1),
			SeatNumber:     i + 1,
		}
	}
	return participants
}

// withWinds gives participants winds in table order
func withWinds(participants []*models.Participant) []*models.Participant {
	for i, p := range participants {
		w := models.AllWinds[i]
		p.Wind = &w
	}
	return participants
}

func expectActiveSession(uow *MockUnitOfWork, ctx context.Context, session *models.Session, participants []*models.Participant) {
	uow.Sessions.On("GetActiveByGroupForUpdate", ctx, testGroupID).Return(session, nil)
	if session != nil {
		uow.Participants.On("ListBySession", ctx, session.ID).Return(participants, nil)
	}
}

func expectEvent(uow *MockUnitOfWork, eventType string) {
	uow.Events.On("Publish", mock.AnythingOfType(eventType)).Return()
}

func assertMocks(t *testing.T, factory *MockUnitOfWorkFactory, units ...*MockUnitOfWork) {
	t.Helper()
	factory.AssertExpectations(t)
	for _, uow := range units {
		uow.AssertExpectations(t)
	}
}

func strPtr(s string) *string {
	return &s
}
