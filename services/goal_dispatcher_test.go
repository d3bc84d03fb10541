package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/types/notification"
)

var threeDays = abstinence.Goal{Name: "3 Days", Hours: 72}

func TestGoalDispatcher_PersistsQueuedJobs(t *testing.T) {
	s := &mockGoalStore{}
	s.On("UpdateSelectedGoal", mock.Anything, "act_1", threeDays).Return(nil).Once()

	d := NewGoalDispatcher(s, 2, 10)
	assert.True(t, d.Enqueue(&GoalJob{ActivityID: "act_1", OwnerID: "user_1", Goal: threeDays}))
	d.Stop()

	s.AssertExpectations(t)
	s.AssertNotCalled(t, "ListDevices", mock.Anything, mock.Anything)
}

func TestGoalDispatcher_MilestonePush(t *testing.T) {
	tokens := []notification.DeviceToken{{Token: "tok", Platform: "android"}}
	reached := abstinence.Goal{Name: "24 Hours", Hours: 24}

	s := &mockGoalStore{}
	s.On("UpdateSelectedGoal", mock.Anything, "act_1", threeDays).Return(nil)
	s.On("ListDevices", mock.Anything, "user_1").Return(tokens, nil)

	push := &mockPushProvider{}
	push.On("SendPush", mock.Anything, tokens, "Milestone reached", mock.AnythingOfType("string"),
		mock.MatchedBy(func(data map[string]any) bool {
			return data["goal"] == "24 Hours" && data["next_goal"] == "3 Days"
		}),
	).Return(nil).Once()

	d := NewGoalDispatcher(s, 1, 10)
	d.SetPushProvider(push)
	d.Enqueue(&GoalJob{ActivityID: "act_1", ActivityName: "Smoking", OwnerID: "user_1", Goal: threeDays, Reached: &reached})
	d.Stop()

	push.AssertExpectations(t)
}

func TestGoalDispatcher_PersistFailureSkipsPush(t *testing.T) {
	reached := abstinence.Goal{Name: "24 Hours", Hours: 24}

	s := &mockGoalStore{}
	s.On("UpdateSelectedGoal", mock.Anything, "act_1", threeDays).Return(errors.New("db down"))

	push := &mockPushProvider{}

	d := NewGoalDispatcher(s, 1, 10)
	d.SetPushProvider(push)
	d.Enqueue(&GoalJob{ActivityID: "act_1", OwnerID: "user_1", Goal: threeDays, Reached: &reached})
	d.Stop()

	push.AssertNotCalled(t, "SendPush", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGoalDispatcher_FullQueueDrops(t *testing.T) {
	d := NewGoalDispatcher(&mockGoalStore{}, 0, 1)

	assert.True(t, d.Enqueue(&GoalJob{ActivityID: "a", Goal: threeDays}))
	assert.False(t, d.Enqueue(&GoalJob{ActivityID: "b", Goal: threeDays}))

	d.Stop()
	assert.False(t, d.Enqueue(&GoalJob{ActivityID: "c", Goal: threeDays}), "stopped dispatcher rejects jobs")
}
