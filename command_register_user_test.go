package accounts_test

import (
	"context"
	"fmt"
	"testing"

	accounts "github.com/goliatone/go-accounts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestTokens() accounts.TokenService {
	cfg := newTestConfig()
	return accounts.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		nil,
	)
}

func TestRegisterUserMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		message accounts.RegisterUserMessage
		wantErr bool
	}{
		{
			name: "Valid message",
			message: accounts.RegisterUserMessage{
				Username: "alice",
				Email:    "alice@example.com",
				Password: "Password123!",
			},
		},
		{
			name: "Missing username",
			message: accounts.RegisterUserMessage{
				Email:    "alice@example.com",
				Password: "Password123!",
			},
			wantErr: true,
		},
		{
			name: "Invalid email",
			message: accounts.RegisterUserMessage{
				Username: "alice",
				Email:    "not-an-email",
				Password: "Password123!",
			},
			wantErr: true,
		},
		{
			name: "Short password",
			message: accounts.RegisterUserMessage{
				Username: "alice",
				Email:    "alice@example.com",
				Password: "short",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.message.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRegisterUserHandler(t *testing.T) {
	_, repo := newTestDB(t, "register_handler")
	handler := accounts.NewRegisterUserHandler(repo, newTestTokens())

	view, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", view.Username)
	assert.Equal(t, "alice", view.DisplayName)
	assert.Nil(t, view.Image)
	assert.NotEmpty(t, view.Token)

	// the stored record keeps a hash, never the password
	user, err := repo.Users().FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "Password123!", user.PasswordHash)
}

func TestRegisterUserHandlerDisplayName(t *testing.T) {
	_, repo := newTestDB(t, "register_handler_display")
	handler := accounts.NewRegisterUserHandler(repo, newTestTokens())

	view, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username:    "bob",
		Email:       "bob@example.com",
		DisplayName: "Bob Doe",
		Password:    "Password123!",
	})
	require.NoError(t, err)
	assert.Equal(t, "Bob Doe", view.DisplayName)
}

func TestRegisterUserHandlerDuplicateEmail(t *testing.T) {
	_, repo := newTestDB(t, "register_handler_dup_email")
	handler := accounts.NewRegisterUserHandler(repo, newTestTokens())

	_, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "Password123!",
	})
	require.Error(t, err)
	assert.True(t, accounts.IsConflict(err))

	fields, ok := accounts.FieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, accounts.MsgEmailExists, fields["email"])
}

func TestRegisterUserHandlerDuplicateUsername(t *testing.T) {
	_, repo := newTestDB(t, "register_handler_dup_username")
	handler := accounts.NewRegisterUserHandler(repo, newTestTokens())

	_, err := handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	_, err = handler.Execute(context.Background(), accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice2@example.com",
		Password: "Password123!",
	})
	require.Error(t, err)

	fields, ok := accounts.FieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, accounts.MsgUsernameExists, fields["username"])
}

// A failed registration leaves no partial state behind: retrying the
// same duplicate fails identically, and the store keeps a single row.
func TestRegisterUserHandlerFailureLeavesNoPartialState(t *testing.T) {
	db, repo := newTestDB(t, "register_handler_idempotent")
	handler := accounts.NewRegisterUserHandler(repo, newTestTokens())
	ctx := context.Background()

	_, err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Password123!",
	})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := handler.Execute(ctx, accounts.RegisterUserMessage{
			Username: fmt.Sprintf("alice%d", i),
			Email:    "alice@example.com",
			Password: "Password123!",
		})
		require.Error(t, err)
		assert.True(t, accounts.IsConflict(err))
	}

	count, err := db.NewSelect().
		Model((*accounts.User)(nil)).
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// Two registrations race on the same email; exactly one may win. The
// loser must fail with the email conflict regardless of whether the
// pre-check or the unique constraint catches it.
func TestRegisterUserHandlerConcurrentSameEmail(t *testing.T) {
	db, repo := newTestDB(t, "register_handler_concurrent")
	handler := accounts.NewRegisterUserHandler(repo, newTestTokens())
	ctx := context.Background()

	results := make([]error, 2)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < 2; i++ {
		i := i
		g.Go(func() error {
			_, err := handler.Execute(gctx, accounts.RegisterUserMessage{
				Username: fmt.Sprintf("racer%d", i),
				Email:    "contested@example.com",
				Password: "Password123!",
			})
			results[i] = err
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var failures int
	for _, err := range results {
		if err != nil {
			failures++
			assert.True(t, accounts.IsConflict(err))

			fields, ok := accounts.FieldErrors(err)
			require.True(t, ok)
			assert.Equal(t, accounts.MsgEmailExists, fields["email"])
		}
	}
	assert.Equal(t, 1, failures, "exactly one registration should lose the race")

	count, err := db.NewSelect().
		Model((*accounts.User)(nil)).
		Where("email = ?", "contested@example.com").
		Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterUserHandlerCancelledContext(t *testing.T) {
	_, repo := newTestDB(t, "register_handler_cancelled")
	handler := accounts.NewRegisterUserHandler(repo, newTestTokens())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := handler.Execute(ctx, accounts.RegisterUserMessage{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Password123!",
	})
	assert.Error(t, err)
}
