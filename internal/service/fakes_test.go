package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/zapfit/messaging-service/internal/domain"
	"github.com/zapfit/messaging-service/internal/provider"
	"github.com/zapfit/messaging-service/internal/repository"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func strPtr(s string) *string {
	return &s
}

type fakeConnectionRepo struct {
	connections   []*domain.Connection
	statusUpdates map[string]domain.ConnectionStatus
}

func newFakeConnectionRepo(conns ...*domain.Connection) *fakeConnectionRepo {
	return &fakeConnectionRepo{
		connections:   conns,
		statusUpdates: map[string]domain.ConnectionStatus{},
	}
}

func (f *fakeConnectionRepo) GetByID(_ context.Context, id string) (*domain.Connection, error) {
	for _, conn := range f.connections {
		if conn.ID == id {
			return conn, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeConnectionRepo) GetByInstanceID(_ context.Context, instanceID string) (*domain.Connection, error) {
	for _, conn := range f.connections {
		if conn.InstanceID != nil && *conn.InstanceID == instanceID {
			return conn, nil
		}
	}
	for _, conn := range f.connections {
		if conn.LegacyInstanceID != nil && *conn.LegacyInstanceID == instanceID {
			return conn, nil
		}
		if conn.PhoneNumberID != nil && *conn.PhoneNumberID == instanceID {
			return conn, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeConnectionRepo) GetFallbackForCompany(_ context.Context, companyID string) (*domain.Connection, error) {
	var fallback *domain.Connection
	for _, conn := range f.connections {
		if conn.CompanyID != companyID || conn.Status != domain.ConnectionStatusConnected {
			continue
		}
		if fallback == nil || (conn.IsDefault && !fallback.IsDefault) {
			fallback = conn
		}
	}
	if fallback == nil {
		return nil, pgx.ErrNoRows
	}
	return fallback, nil
}

func (f *fakeConnectionRepo) UpdateStatus(_ context.Context, id string, status domain.ConnectionStatus) error {
	f.statusUpdates[id] = status
	for _, conn := range f.connections {
		if conn.ID == id {
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeContactRepo struct {
	seq      int
	contacts []*domain.Contact
	// dupWinner, when set, simulates a concurrent insert winning the unique
	// constraint race: Create stores it and reports the duplicate.
	dupWinner *domain.Contact

	nameUpdates      map[string]string
	touched          []string
	lastInteractions []string
}

func newFakeContactRepo(contacts ...*domain.Contact) *fakeContactRepo {
	return &fakeContactRepo{contacts: contacts, nameUpdates: map[string]string{}}
}

func (f *fakeContactRepo) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	for _, contact := range f.contacts {
		if contact.ID == id {
			return contact, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeContactRepo) GetByNumbers(_ context.Context, companyID string, numbers []string) (*domain.Contact, error) {
	for _, contact := range f.contacts {
		if contact.CompanyID != companyID {
			continue
		}
		for _, number := range numbers {
			if contact.Number == number {
				return contact, nil
			}
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeContactRepo) Create(_ context.Context, contact *domain.Contact) error {
	if f.dupWinner != nil {
		f.contacts = append(f.contacts, f.dupWinner)
		f.dupWinner = nil
		return repository.ErrDuplicateContact
	}
	f.seq++
	contact.ID = fmt.Sprintf("contact-%d", f.seq)
	contact.CreatedAt = time.Now()
	f.contacts = append(f.contacts, contact)
	return nil
}

func (f *fakeContactRepo) UpdateName(_ context.Context, id, name string) error {
	f.nameUpdates[id] = name
	return nil
}

func (f *fakeContactRepo) TouchInteraction(_ context.Context, id string, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeContactRepo) UpdateLastInteraction(_ context.Context, id string, _ time.Time) error {
	f.lastInteractions = append(f.lastInteractions, id)
	return nil
}

type fakeMemberRepo struct {
	exists  map[string]bool
	created []*domain.Member
}

func newFakeMemberRepo() *fakeMemberRepo {
	return &fakeMemberRepo{exists: map[string]bool{}}
}

func (f *fakeMemberRepo) ExistsForContact(_ context.Context, contactID string) (bool, error) {
	return f.exists[contactID], nil
}

func (f *fakeMemberRepo) Create(_ context.Context, member *domain.Member) error {
	member.ID = fmt.Sprintf("member-%d", len(f.created)+1)
	f.exists[member.ContactID] = true
	f.created = append(f.created, member)
	return nil
}

type fakeTicketRepo struct {
	seq     int
	tickets []*domain.Ticket

	queueUpdates map[string]string
	connUpdates  map[string]string
	lastMessages map[string]string
}

func newFakeTicketRepo(tickets ...*domain.Ticket) *fakeTicketRepo {
	return &fakeTicketRepo{
		tickets:      tickets,
		queueUpdates: map[string]string{},
		connUpdates:  map[string]string{},
		lastMessages: map[string]string{},
	}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", f.seq)
	ticket.CreatedAt = time.Now()
	f.tickets = append(f.tickets, ticket)
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	for _, ticket := range f.tickets {
		if ticket.ID == id {
			return ticket, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) GetLatestByContact(_ context.Context, companyID, contactID string, statuses []domain.TicketStatus) (*domain.Ticket, error) {
	var latest *domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.CompanyID != companyID || ticket.ContactID != contactID {
			continue
		}
		match := false
		for _, status := range statuses {
			if ticket.Status == status {
				match = true
				break
			}
		}
		if !match {
			continue
		}
		if latest == nil || ticket.CreatedAt.After(latest.CreatedAt) {
			latest = ticket
		}
	}
	if latest == nil {
		return nil, pgx.ErrNoRows
	}
	return latest, nil
}

func (f *fakeTicketRepo) UpdateQueue(_ context.Context, id, queueID string) error {
	f.queueUpdates[id] = queueID
	return nil
}

func (f *fakeTicketRepo) UpdateConnection(_ context.Context, id, connectionID string) error {
	f.connUpdates[id] = connectionID
	for _, ticket := range f.tickets {
		if ticket.ID == id {
			ticket.ConnectionID = connectionID
		}
	}
	return nil
}

func (f *fakeTicketRepo) UpdateLastMessage(_ context.Context, id, lastMessage string) error {
	f.lastMessages[id] = lastMessage
	return nil
}

type fakeMessageRepo struct {
	seq      int
	messages []*domain.Message
	// createErr forces the next Create to fail with a non-duplicate error.
	createErr error
}

func newFakeMessageRepo(messages ...*domain.Message) *fakeMessageRepo {
	return &fakeMessageRepo{messages: messages}
}

func (f *fakeMessageRepo) Create(_ context.Context, message *domain.Message) error {
	if f.createErr != nil {
		err := f.createErr
		f.createErr = nil
		return err
	}
	if message.WID != nil {
		for _, existing := range f.messages {
			if existing.WID != nil && *existing.WID == *message.WID {
				return repository.ErrDuplicateMessage
			}
		}
	}
	f.seq++
	message.ID = fmt.Sprintf("message-%d", f.seq)
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeMessageRepo) GetByWID(_ context.Context, wid string) (*domain.Message, error) {
	for _, message := range f.messages {
		if message.WID != nil && *message.WID == wid {
			return message, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMessageRepo) GetByID(_ context.Context, id string) (*domain.Message, error) {
	for _, message := range f.messages {
		if message.ID == id {
			return message, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeMessageRepo) UpdateAckByWID(_ context.Context, wid string, ack int) (int64, error) {
	var affected int64
	for _, message := range f.messages {
		if message.WID != nil && *message.WID == wid {
			message.Ack = ack
			affected++
		}
	}
	return affected, nil
}

func (f *fakeMessageRepo) UpdateAckByRawID(_ context.Context, rawID string, ack int) (int64, error) {
	var affected int64
	for _, message := range f.messages {
		if len(message.DataJSON) == 0 {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(message.DataJSON, &raw); err != nil {
			continue
		}
		if id, ok := raw["id"].(string); ok && id == rawID {
			message.Ack = ack
			affected++
		}
	}
	return affected, nil
}

type fakeTagRepo struct {
	tags     []domain.Tag
	attached [][2]string
	listErr  error
}

func (f *fakeTagRepo) ListCampaignTags(_ context.Context, _ string) ([]domain.Tag, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tags, nil
}

func (f *fakeTagRepo) AttachContactTag(_ context.Context, contactID, tagID string) (bool, error) {
	for _, pair := range f.attached {
		if pair[0] == contactID && pair[1] == tagID {
			return false, nil
		}
	}
	f.attached = append(f.attached, [2]string{contactID, tagID})
	return true, nil
}

type fakeDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: map[string]bool{}}
}

func (f *fakeDeduper) ClaimOnce(_ context.Context, key string, _ time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}

func (f *fakeDeduper) Release(_ context.Context, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.seen, key)
}

func (f *fakeDeduper) claimed(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[key]
}

type fakeSender struct {
	id    string
	err   error
	sent  []provider.OutboundMessage
	conns []*domain.Connection
}

func (f *fakeSender) Send(_ context.Context, conn *domain.Connection, msg provider.OutboundMessage) (string, error) {
	f.sent = append(f.sent, msg)
	f.conns = append(f.conns, conn)
	return f.id, f.err
}

type fakeAgent struct {
	response *AgentResponse
	err      error
	requests []AgentRequest
}

func (f *fakeAgent) Invoke(_ context.Context, req AgentRequest) (*AgentResponse, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

type fakePixel struct {
	events []ConversionEvent
	err    error
}

func (f *fakePixel) Report(_ context.Context, event ConversionEvent) error {
	f.events = append(f.events, event)
	return f.err
}
