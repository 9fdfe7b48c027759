package service

import (
	"log"

	"solifin/internal/models"
	"solifin/internal/repository"

	"gorm.io/gorm"
)

// NotificationService writes persisted notification rows. Delivery
// (push, email) is out of scope; readers poll their notification feed.
type NotificationService struct {
	notifications *repository.NotificationRepository
	users         *repository.UserRepository
}

func NewNotificationService(notifications *repository.NotificationRepository, users *repository.UserRepository) *NotificationService {
	return &NotificationService{notifications: notifications, users: users}
}

func (s *NotificationService) Notify(tx *gorm.DB, userID uint, notifType, title, body string) error {
	return s.notifications.WithTx(tx).Create(&models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	})
}

// NotifyAdmins fans a notification out to every administrator.
func (s *NotificationService) NotifyAdmins(tx *gorm.DB, notifType, title, body string) error {
	admins, err := s.users.WithTx(tx).ListAdmins()
	if err != nil {
		return err
	}
	for _, a := range admins {
		if err := s.Notify(tx, a.ID, notifType, title, body); err != nil {
			log.Printf("[Notify] admin %d: %v", a.ID, err)
			return err
		}
	}
	return nil
}
