package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := errors.New("Error 1062 (23000): Duplicate entry '3-1-1' for key 'tickets.uq_tickets_session_seat'")
	assert.True(t, isDuplicateKey(dup))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert tickets: %w", dup)))

	assert.False(t, isDuplicateKey(nil))
	assert.False(t, isDuplicateKey(errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction")))
	assert.False(t, isDuplicateKey(errors.New("connection refused")))
}

func TestIsDeadlock(t *testing.T) {
	dl := errors.New("Error 1213 (40001): Deadlock found when trying to get lock; try restarting transaction")
	assert.True(t, isDeadlock(dl))
	assert.True(t, isDeadlock(fmt.Errorf("reserve seats: %w", dl)))

	assert.False(t, isDeadlock(nil))
	assert.False(t, isDeadlock(errors.New("Error 1062 (23000): Duplicate entry '3-1-1' for key 'tickets.uq_tickets_session_seat'")))
	assert.False(t, isDeadlock(errors.New("connection refused")))
}
