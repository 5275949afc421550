package workflow

import (
	"strings"

	"github.com/dipalisurve2377/organization-events-sub001/identity"
	"github.com/dipalisurve2377/organization-events-sub001/store"
	"github.com/pkg/errors"
)

// DefaultConnection is the identity provider database users are created in when the input names none
const DefaultConnection = "Username-Password-Authentication"

// Input is the payload of a saga. Key is the local key of the target entity.
type Input interface {
	Key() string
	Validate() error
}

type OrganizationInput struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	// NotifyEmail receives the status email. Nothing is sent when it is empty.
	NotifyEmail string `json:"notify_email,omitempty"`
}

func (i OrganizationInput) Key() string {
	return i.Identifier
}

func (i OrganizationInput) Validate() error {
	if strings.TrimSpace(i.Identifier) == "" {
		return errors.New("organization identifier is required")
	}

	if strings.TrimSpace(i.Name) == "" {
		return errors.Errorf("name of organization %s is required", i.Identifier)
	}

	return nil
}

func (i OrganizationInput) attributes() identity.Attributes {
	return identity.Attributes{
		"name":         i.Identifier,
		"display_name": i.Name,
	}
}

type UserInput struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Password   string `json:"password"`
	Connection string `json:"connection,omitempty"`
}

func (i UserInput) Key() string {
	return i.Email
}

func (i UserInput) Validate() error {
	if !strings.Contains(i.Email, "@") {
		return errors.Errorf("user email '%s' is invalid", i.Email)
	}

	if i.Password == "" {
		return errors.Errorf("password of user %s is required", i.Email)
	}

	return nil
}

func (i UserInput) attributes() identity.Attributes {
	connection := i.Connection
	if connection == "" {
		connection = DefaultConnection
	}

	attrs := identity.Attributes{
		"email":      i.Email,
		"password":   i.Password,
		"connection": connection,
	}

	if i.Name != "" {
		attrs["name"] = i.Name
	}

	return attrs
}

// OrganizationUpdateInput changes an organization. An empty Name keeps the current one,
// a present IdpID is written as given, an empty string included.
type OrganizationUpdateInput struct {
	Identifier  string  `json:"identifier"`
	Name        string  `json:"name,omitempty"`
	IdpID       *string `json:"idp_id,omitempty"`
	NotifyEmail string  `json:"notify_email,omitempty"`
}

func (i OrganizationUpdateInput) Key() string {
	return i.Identifier
}

func (i OrganizationUpdateInput) Validate() error {
	if strings.TrimSpace(i.Identifier) == "" {
		return errors.New("organization identifier is required")
	}

	return nil
}

func (i OrganizationUpdateInput) update() store.Update {
	return store.Update{Name: store.NonEmpty(i.Name), IdpID: store.FromPtr(i.IdpID)}
}

type UserUpdateInput struct {
	Email string  `json:"email"`
	Name  string  `json:"name,omitempty"`
	IdpID *string `json:"idp_id,omitempty"`
}

func (i UserUpdateInput) Key() string {
	return i.Email
}

func (i UserUpdateInput) Validate() error {
	if !strings.Contains(i.Email, "@") {
		return errors.Errorf("user email '%s' is invalid", i.Email)
	}

	return nil
}

func (i UserUpdateInput) update() store.Update {
	return store.Update{Name: store.NonEmpty(i.Name), IdpID: store.FromPtr(i.IdpID)}
}

type OrganizationDeleteInput struct {
	Identifier string `json:"identifier"`
	// Purge removes the record instead of marking it deleted
	Purge       bool   `json:"purge,omitempty"`
	NotifyEmail string `json:"notify_email,omitempty"`
}

func (i OrganizationDeleteInput) Key() string {
	return i.Identifier
}

func (i OrganizationDeleteInput) Validate() error {
	if strings.TrimSpace(i.Identifier) == "" {
		return errors.New("organization identifier is required")
	}

	return nil
}

type UserDeleteInput struct {
	Email string `json:"email"`
	Purge bool   `json:"purge,omitempty"`
}

func (i UserDeleteInput) Key() string {
	return i.Email
}

func (i UserDeleteInput) Validate() error {
	if !strings.Contains(i.Email, "@") {
		return errors.Errorf("user email '%s' is invalid", i.Email)
	}

	return nil
}
