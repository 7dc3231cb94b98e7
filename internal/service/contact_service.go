package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/domain"
	"github.com/zapfit/messaging-service/internal/repository"
)

// legacySuffix is the historical address form some rows still carry.
const legacySuffix = "@c.us"

// ContactService finds or lazily creates contacts for inbound addresses.
type ContactService struct {
	contacts repository.ContactRepository
	members  repository.MemberRepository
	logger   *zap.Logger
}

// NewContactService constructs the service.
func NewContactService(contacts repository.ContactRepository, members repository.MemberRepository, logger *zap.Logger) *ContactService {
	return &ContactService{contacts: contacts, members: members, logger: logger}
}

// Resolve returns the contact for a raw inbound address, creating it on first
// sight. Two concurrent first messages may race here; the unique constraint on
// (company, number) guarantees a single contact and the loser re-fetches.
func (s *ContactService) Resolve(ctx context.Context, companyID, rawAddress, name string, isGroup bool) (*domain.Contact, error) {
	number := NormalizeNumber(rawAddress)
	if number == "" {
		return nil, errors.New("address has no usable number")
	}
	candidates := []string{number, number + legacySuffix}

	contact, err := s.contacts.GetByNumbers(ctx, companyID, candidates)
	if err == nil {
		s.maybeUpdateName(ctx, contact, name)
		return contact, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	contact = &domain.Contact{
		CompanyID: companyID,
		Number:    number,
		Name:      name,
		IsGroup:   isGroup,
	}
	if contact.Name == "" {
		contact.Name = number
	}
	if err := s.contacts.Create(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrDuplicateContact) {
			return s.contacts.GetByNumbers(ctx, companyID, candidates)
		}
		return nil, err
	}

	if !isGroup {
		s.createProvisionalMember(ctx, contact)
	}
	return contact, nil
}

// TouchInteraction bumps denormalized inbound counters; failures are logged,
// never surfaced, so they cannot roll back an already committed message.
func (s *ContactService) TouchInteraction(ctx context.Context, contactID string, at time.Time) {
	if err := s.contacts.TouchInteraction(ctx, contactID, at); err != nil {
		s.logger.Warn("failed to update contact interaction",
			zap.String("contact_id", contactID), zap.Error(err))
	}
}

// maybeUpdateName refreshes the display name when the stored one is still the
// number placeholder and the provider supplied a real name.
func (s *ContactService) maybeUpdateName(ctx context.Context, contact *domain.Contact, name string) {
	if name == "" || name == contact.Name || contact.Name != contact.Number {
		return
	}
	if err := s.contacts.UpdateName(ctx, contact.ID, name); err != nil {
		s.logger.Warn("failed to update contact name",
			zap.String("contact_id", contact.ID), zap.Error(err))
		return
	}
	contact.Name = name
}

// createProvisionalMember creates the companion CRM record with a prior
// existence check. Duplicate creation under races is tolerated as best effort.
func (s *ContactService) createProvisionalMember(ctx context.Context, contact *domain.Contact) {
	exists, err := s.members.ExistsForContact(ctx, contact.ID)
	if err != nil {
		s.logger.Warn("member existence check failed",
			zap.String("contact_id", contact.ID), zap.Error(err))
		return
	}
	if exists {
		return
	}
	member := &domain.Member{
		CompanyID: contact.CompanyID,
		ContactID: contact.ID,
		Status:    domain.MemberStatusInactive,
	}
	if err := s.members.Create(ctx, member); err != nil {
		s.logger.Warn("failed to create provisional member",
			zap.String("contact_id", contact.ID), zap.Error(err))
	}
}

// NormalizeNumber strips an address down to its digits. Group jids keep their
// full digit run, which includes the group discriminator.
func NormalizeNumber(rawAddress string) string {
	address := rawAddress
	if idx := strings.IndexByte(address, '@'); idx >= 0 {
		address = address[:idx]
	}
	var b strings.Builder
	for _, r := range address {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
