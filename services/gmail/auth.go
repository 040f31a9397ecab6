package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/99designs/keyring"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/mailbear/mailbear/interfaces"
	"github.com/mailbear/mailbear/internal/logger"
)

const tokenKey = "oauth-token"

// AuthConfig locates the OAuth client secret and the cached token. When
// UseSecureStore is set, the token lives in the system keyring under
// StoreName instead of the token file.
type AuthConfig struct {
	CredentialsPath string
	TokenPath       string
	UseSecureStore  bool
	StoreName       string
}

// Authenticator acquires Gmail credentials and hands back a ready source.
type Authenticator struct {
	cfg AuthConfig
	log logger.Logger

	// promptCode runs the console consent flow; overridable in tests.
	promptCode func(authURL string) (string, error)
}

var _ interfaces.Authenticator = (*Authenticator)(nil)

func NewAuthenticator(cfg AuthConfig, log logger.Logger) *Authenticator {
	return &Authenticator{
		cfg: cfg,
		log: log,
		promptCode: func(authURL string) (string, error) {
			fmt.Printf("Go to the following link in your browser then type the authorization code:\n%s\n", authURL)
			var code string
			if _, err := fmt.Scan(&code); err != nil {
				return "", errors.Wrap(err, "unable to read authorization code")
			}
			return code, nil
		},
	}
}

// Authenticate loads or refreshes the cached token, running the consent flow
// when no usable token exists or forceRefresh is set.
func (a *Authenticator) Authenticate(ctx context.Context, forceRefresh bool) (interfaces.MailSource, error) {
	raw, err := os.ReadFile(a.cfg.CredentialsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "credentials file not found: %s", a.cfg.CredentialsPath)
	}
	oauthCfg, err := google.ConfigFromJSON(raw, gmailapi.GmailModifyScope)
	if err != nil {
		return nil, errors.Wrap(err, "unable to parse client secret file")
	}

	var token *oauth2.Token
	if !forceRefresh {
		token, err = a.loadToken()
		if err != nil {
			a.log.Warnf("error loading cached token: %v", err)
		}
	}

	if token == nil {
		token, err = a.consentFlow(ctx, oauthCfg)
		if err != nil {
			return nil, err
		}
	}

	ts := oauthCfg.TokenSource(ctx, token)
	fresh, err := ts.Token()
	if err != nil {
		a.log.Warnf("cached token unusable, re-running consent flow: %v", err)
		token, err = a.consentFlow(ctx, oauthCfg)
		if err != nil {
			return nil, err
		}
		ts = oauthCfg.TokenSource(ctx, token)
		fresh = token
	}

	if err := a.saveToken(fresh); err != nil {
		a.log.Errorf("error saving token: %v", err)
	}

	a.log.Infof("successfully authenticated with the Gmail API")
	return NewClient(ctx, ts, a.log)
}

func (a *Authenticator) consentFlow(ctx context.Context, oauthCfg *oauth2.Config) (*oauth2.Token, error) {
	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	code, err := a.promptCode(authURL)
	if err != nil {
		return nil, err
	}
	token, err := oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, errors.Wrap(err, "unable to exchange authorization code")
	}
	return token, nil
}

func (a *Authenticator) openKeyring() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName: a.cfg.StoreName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Dir(a.cfg.TokenPath),
		FilePasswordFunc:         keyring.FixedStringPrompt(a.cfg.StoreName),
		KeychainTrustApplication: true,
	})
}

func (a *Authenticator) loadToken() (*oauth2.Token, error) {
	var raw []byte
	if a.cfg.UseSecureStore {
		ring, err := a.openKeyring()
		if err != nil {
			return nil, errors.Wrap(err, "error opening keyring")
		}
		item, err := ring.Get(tokenKey)
		if err != nil {
			if errors.Is(err, keyring.ErrKeyNotFound) {
				return nil, nil
			}
			return nil, errors.Wrap(err, "error reading token from keyring")
		}
		raw = item.Data
	} else {
		var err error
		raw, err = os.ReadFile(a.cfg.TokenPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, errors.Wrap(err, "error reading token file")
		}
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(raw, token); err != nil {
		return nil, errors.Wrap(err, "error decoding cached token")
	}
	return token, nil
}

func (a *Authenticator) saveToken(token *oauth2.Token) error {
	raw, err := json.Marshal(token)
	if err != nil {
		return errors.Wrap(err, "error encoding token")
	}

	if a.cfg.UseSecureStore {
		ring, err := a.openKeyring()
		if err != nil {
			return errors.Wrap(err, "error opening keyring")
		}
		return ring.Set(keyring.Item{Key: tokenKey, Data: raw})
	}

	if err := os.MkdirAll(filepath.Dir(a.cfg.TokenPath), 0o700); err != nil {
		return errors.Wrap(err, "error creating token directory")
	}
	return os.WriteFile(a.cfg.TokenPath, raw, 0o600)
}
