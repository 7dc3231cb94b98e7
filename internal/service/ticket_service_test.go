package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapfit/messaging-service/internal/domain"
)

func testContact() *domain.Contact {
	return &domain.Contact{ID: "contact-1", CompanyID: "company-1", Number: "5511999990000"}
}

func testConnection() *domain.Connection {
	return &domain.Connection{
		ID: "conn-1", CompanyID: "company-1",
		Status: domain.ConnectionStatusConnected,
	}
}

func TestTicketService_ResolveCreatesPending(t *testing.T) {
	tickets := newFakeTicketRepo()
	svc := NewTicketService(tickets, testLogger())

	conn := testConnection()
	conn.DefaultQueueID = strPtr("queue-1")

	ticket, created, err := svc.Resolve(context.Background(), testContact(), conn)
	require.NoError(t, err)

	assert.True(t, created)
	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, "conn-1", ticket.ConnectionID)
	require.NotNil(t, ticket.QueueID)
	assert.Equal(t, "queue-1", *ticket.QueueID)
}

func TestTicketService_ResolveReusesLatestActive(t *testing.T) {
	older := &domain.Ticket{
		ID: "ticket-old", CompanyID: "company-1", ContactID: "contact-1",
		Status: domain.TicketStatusOpen, CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := &domain.Ticket{
		ID: "ticket-new", CompanyID: "company-1", ContactID: "contact-1",
		Status: domain.TicketStatusPending, CreatedAt: time.Now(),
		QueueID: strPtr("queue-1"),
	}
	tickets := newFakeTicketRepo(older, newer)
	svc := NewTicketService(tickets, testLogger())

	ticket, created, err := svc.Resolve(context.Background(), testContact(), testConnection())
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, "ticket-new", ticket.ID)
	assert.Len(t, tickets.tickets, 2)
}

func TestTicketService_ResolveIgnoresClosed(t *testing.T) {
	closed := &domain.Ticket{
		ID: "ticket-closed", CompanyID: "company-1", ContactID: "contact-1",
		Status: domain.TicketStatusClosed, CreatedAt: time.Now(),
	}
	tickets := newFakeTicketRepo(closed)
	svc := NewTicketService(tickets, testLogger())

	ticket, created, err := svc.Resolve(context.Background(), testContact(), testConnection())
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEqual(t, "ticket-closed", ticket.ID)
}

func TestTicketService_ResolveBackfillsQueue(t *testing.T) {
	existing := &domain.Ticket{
		ID: "ticket-1", CompanyID: "company-1", ContactID: "contact-1",
		Status: domain.TicketStatusOpen, CreatedAt: time.Now(),
	}
	tickets := newFakeTicketRepo(existing)
	svc := NewTicketService(tickets, testLogger())

	conn := testConnection()
	conn.DefaultQueueID = strPtr("queue-7")

	ticket, _, err := svc.Resolve(context.Background(), testContact(), conn)
	require.NoError(t, err)

	require.NotNil(t, ticket.QueueID)
	assert.Equal(t, "queue-7", *ticket.QueueID)
	assert.Equal(t, "queue-7", tickets.queueUpdates["ticket-1"])
}

func TestTicketService_ResolveKeepsAssignedQueue(t *testing.T) {
	existing := &domain.Ticket{
		ID: "ticket-1", CompanyID: "company-1", ContactID: "contact-1",
		Status: domain.TicketStatusOpen, CreatedAt: time.Now(),
		QueueID: strPtr("queue-original"),
	}
	tickets := newFakeTicketRepo(existing)
	svc := NewTicketService(tickets, testLogger())

	conn := testConnection()
	conn.DefaultQueueID = strPtr("queue-7")

	ticket, _, err := svc.Resolve(context.Background(), testContact(), conn)
	require.NoError(t, err)

	assert.Equal(t, "queue-original", *ticket.QueueID)
	assert.Empty(t, tickets.queueUpdates)
}
