package mailer

import (
	"context"
	"fmt"

	"yamdb/internal/microservices/http-api/models"
)

const confirmationSubject = "registration confirmation"

// Enqueuer accepts messages for asynchronous delivery.
type Enqueuer interface {
	Enqueue(msg Message) error
}

// ConfirmationMailer emails confirmation codes to newly registered users.
type ConfirmationMailer struct {
	queue Enqueuer
}

func NewConfirmationMailer(queue Enqueuer) *ConfirmationMailer {
	return &ConfirmationMailer{queue: queue}
}

// Deliver queues the code for user. Only queueing failures are returned;
// send errors are logged by the dispatcher.
func (m *ConfirmationMailer) Deliver(_ context.Context, user *models.User, code string) error {
	return m.queue.Enqueue(Message{
		To:      user.Email,
		Subject: confirmationSubject,
		Body:    confirmationBody(user, code),
	})
}

func confirmationBody(user *models.User, code string) string {
	return fmt.Sprintf("Hello!\n"+
		"You have registered on YaMDB with username %s and email %s.\n"+
		"To finish registration, use the confirmation code %s.",
		user.Username, user.Email, code)
}
