package middleware

import (
	"errors"
	"fmt"
	"net/mail"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/storedesk/helpdesk/internal/model"
)

// MaxMessageBytes caps the size of a customer message.
const MaxMessageBytes = 100000

// ValidateMessageContent validates message content.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("message cannot be empty")
	}
	if len(content) > MaxMessageBytes {
		return errors.New("message exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("message must be valid UTF-8")
	}
	return nil
}

// ValidateID validates that id is a UUID. name is used in the error.
func ValidateID(name, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid %s format", name)
	}
	return nil
}

// ValidateChannel validates a conversation channel.
func ValidateChannel(c model.Channel) error {
	if !c.Valid() {
		return fmt.Errorf("unknown channel %q", c)
	}
	return nil
}

// ValidatePlatform validates a store platform.
func ValidatePlatform(p model.Platform) error {
	if !p.Valid() {
		return fmt.Errorf("unknown platform %q", p)
	}
	return nil
}

// ValidateEmail validates an optional email address.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidateSendMessage validates an inbound customer message.
func ValidateSendMessage(req *model.SendMessageRequest) error {
	if err := ValidateID("store ID", req.StoreID); err != nil {
		return err
	}
	if req.ConversationID != "" {
		if err := ValidateID("conversation ID", req.ConversationID); err != nil {
			return err
		}
	}
	if err := ValidateMessageContent(req.Message); err != nil {
		return err
	}
	if req.Channel != "" {
		if err := ValidateChannel(req.Channel); err != nil {
			return err
		}
	}
	return ValidateEmail(req.CustomerEmail)
}
