package sessionkit

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vitaltrace/sessionkit/credstore"
	"github.com/vitaltrace/sessionkit/mailer"
	"github.com/vitaltrace/sessionkit/remote"
	"github.com/vitaltrace/sessionkit/verification"
)

// Builder assembles a SessionRepository. Collaborators left unset are
// constructed from the Config; explicitly supplied ones win.
type Builder struct {
	config      Config
	redisClient *redis.Client
	httpClient  *http.Client
	authClient  remote.AuthClient
	credentials credstore.Store
	codes       verification.Store
	sender      mailer.Sender
	logger      *zap.Logger
	built       bool
}

// New starts a builder from the given configuration.
func New(cfg Config) *Builder {
	return &Builder{config: cfg}
}

// WithRedis supplies the redis client backing the stores. Required
// when the configured store backend is "redis" and no explicit stores
// are given.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redisClient = client
	return b
}

// WithHTTPClient overrides the http client used by the default remote
// auth client.
func (b *Builder) WithHTTPClient(client *http.Client) *Builder {
	b.httpClient = client
	return b
}

// WithAuthClient replaces the remote auth client entirely.
func (b *Builder) WithAuthClient(client remote.AuthClient) *Builder {
	b.authClient = client
	return b
}

// WithCredentialStore replaces the credential store.
func (b *Builder) WithCredentialStore(store credstore.Store) *Builder {
	b.credentials = store
	return b
}

// WithVerificationStore replaces the verification-code store.
func (b *Builder) WithVerificationStore(store verification.Store) *Builder {
	b.codes = store
	return b
}

// WithMailer replaces the reset-email sender.
func (b *Builder) WithMailer(sender mailer.Sender) *Builder {
	b.sender = sender
	return b
}

// WithLogger supplies the logger. Defaults to zap.NewNop.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration, fills in defaulted collaborators,
// and returns the repository. A builder builds once.
func (b *Builder) Build() (*SessionRepository, error) {
	if b.built {
		return nil, fmt.Errorf("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	authClient := b.authClient
	if authClient == nil {
		client, err := remote.NewClient(remote.Config{
			BaseURL:   b.config.API.BaseURL,
			Timeout:   b.config.API.RequestTimeout,
			UserAgent: b.config.API.UserAgent,
		}, b.httpClient)
		if err != nil {
			return nil, fmt.Errorf("build auth client: %w", err)
		}
		authClient = client
	}

	credentials := b.credentials
	codes := b.codes
	if credentials == nil || codes == nil {
		switch b.config.Store.Backend {
		case StoreRedis:
			if b.redisClient == nil {
				return nil, fmt.Errorf("store backend %q needs a redis client", StoreRedis)
			}
			if credentials == nil {
				credentials = credstore.NewRedisStore(b.redisClient, b.config.Store.RedisPrefix, b.config.Tokens.RefreshTTL)
			}
			if codes == nil {
				codes = verification.NewRedisStore(b.redisClient, b.config.Store.RedisPrefix)
			}
		case StoreMemory:
			if credentials == nil {
				credentials = credstore.NewMemoryStore()
			}
			if codes == nil {
				codes = verification.NewMemoryStore()
			}
		default:
			return nil, fmt.Errorf("unknown store backend %q", b.config.Store.Backend)
		}
	}

	sender := b.sender
	if sender == nil {
		if b.config.SMTP.Host != "" {
			smtp, err := mailer.NewSMTPSender(mailer.SMTPConfig{
				Host:     b.config.SMTP.Host,
				Port:     b.config.SMTP.Port,
				Username: b.config.SMTP.Username,
				Password: b.config.SMTP.Password,
				From:     b.config.SMTP.From,
			})
			if err != nil {
				return nil, fmt.Errorf("build smtp sender: %w", err)
			}
			sender = smtp
		} else {
			sender = mailer.Discard{}
		}
	}

	b.built = true
	return &SessionRepository{
		config:      cloneConfig(b.config),
		remote:      authClient,
		credentials: credentials,
		codes:       codes,
		sender:      sender,
		logger:      logger,
		metrics:     NewMetrics(b.config.Metrics.Enabled),
		state:       StateLoggedOut,
	}, nil
}
