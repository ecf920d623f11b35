package notif

import (
	"errors"
	"testing"

	"villagesq/internal/common"
	"villagesq/internal/dbmysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestDatabaseObserver_StoresEvent(t *testing.T) {
	repo := &MockNotificationRepository{}
	obs := NewDatabaseNotificationObserver(repo)

	trigger := uint64(8)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(n *dbmysql.Notification) bool {
		return n.UserID == 3 &&
			n.Type == string(common.PostCommentType) &&
			n.Title == "New Comment" &&
			n.Body == "Bob commented: nice" &&
			n.TriggerUserID != nil && *n.TriggerUserID == trigger &&
			n.Status == "pending"
	})).Return(nil)

	err := obs.Update(common.NotificationEvent{
		Type:          common.PostCommentType,
		UserID:        3,
		TriggerUserID: &trigger,
		Title:         "New Comment",
		Body:          "Bob commented: nice",
	})

	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDatabaseObserver_WrapsStoreError(t *testing.T) {
	repo := &MockNotificationRepository{}
	obs := NewDatabaseNotificationObserver(repo)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("duplicate key"))

	err := obs.Update(common.NotificationEvent{Type: common.SystemType, UserID: 1})
	assert.ErrorContains(t, err, "failed to store notification")
}

func TestObserverNames(t *testing.T) {
	assert.Equal(t, "database_observer", NewDatabaseNotificationObserver(nil).Name())
	assert.Equal(t, "fcm_observer", NewFCMNotificationObserver(nil, nil).Name())
}
