// Package notify delivers contract notifications to recipients.
package notify

import (
	"context"                         // Context for delivery
	"contract_system/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Notifier tells a recipient that a contract is waiting for them
type Notifier interface {
	ContractSent(ctx context.Context, contract *domain.Contract, recipient *domain.User) error
}

// LogNotifier records notifications in the log instead of sending email
type LogNotifier struct {
	logger logrus.FieldLogger
}

// NewLogNotifier returns a Notifier writing to logger
func NewLogNotifier(logger logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// ContractSent logs the notification that would have been emailed
func (n *LogNotifier) ContractSent(_ context.Context, contract *domain.Contract, recipient *domain.User) error {
	n.logger.WithFields(logrus.Fields{
		"contract_id":  contract.ID,     // Contract ID
		"recipient_id": recipient.ID,    // Recipient user ID
		"email":        recipient.Email, // Recipient email
	}).Infof("Contract %d sent to %s", contract.ID, recipient.Email)
	return nil
}
