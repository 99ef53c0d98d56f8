package core

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

var (
	ErrInvalidEmailAddress = errors.New("invalid e-mail address")
	ErrEmailAddressEmpty   = errors.New("e-mail address is empty")
)

type EmailAddress interface {
	// String returns the string representation for this e-mail address
	String() string
}

type emailAddress struct {
	address string
}

func (email emailAddress) String() string {
	return email.address
}

// ParseEmailAddress parses an e-mail address from any string.
// This uses RFC-5322 to determine valid e-mail addresses, e.g. "Biggie Smalls <notorious@example.com>"
func ParseEmailAddress(address string) (EmailAddress, error) {
	if len(address) == 0 {
		return nil, errors.Join(ErrInvalidEmailAddress, ErrEmailAddressEmpty)
	}
	address = strings.ToLower(address)
	_, err := mail.ParseAddress(address)
	if err != nil {
		return nil, errors.Join(
			ErrInvalidEmailAddress,
			fmt.Errorf("cannot parse e-mail address %q: %w", address, err),
		)
	}
	return emailAddress{address}, nil
}
