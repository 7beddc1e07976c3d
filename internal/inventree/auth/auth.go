package auth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ajg/form"
	"github.com/inventree/invctl/internal/cmd/common"
	"github.com/inventree/invctl/internal/config"
	"github.com/inventree/invctl/internal/inventree/apiutil"
)

// TokenPath is the InvenTree endpoint that exchanges basic credentials for an API token.
const TokenPath = "/api/user/token/"

// ErrNoCredentials is returned when no token is configured and no credential file exists.
var ErrNoCredentials = errors.New("no API token available")

// Credential is the token persisted by login.
type Credential struct {
	Token      string    `json:"token"`
	Username   string    `json:"username,omitempty"`
	BaseURL    string    `json:"base_url"`
	ReceivedAt time.Time `json:"received_at"`
}

type tokenRequest struct {
	Name string `form:"name,omitempty"`
}

type tokenResponse struct {
	Token  string `json:"token"`
	Name   string `json:"name"`
	Expiry string `json:"expiry"`
}

// BuildDefaultCredentialFilePath returns the credential file for a profile, stored
// next to the configuration file.
func BuildDefaultCredentialFilePath(configPath, profile string) string {
	dir := filepath.Dir(configPath)
	if configPath == "" {
		dir = filepath.Dir(config.ExpandDefaultConfigFilePath())
	}
	return filepath.Join(dir, fmt.Sprintf(".%s-inventree-token.json", profile))
}

func LoadCredential(path string) (*Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("failed to parse credential file %s: %w", path, err)
	}

	return &cred, nil
}

func SaveCredential(path string, cred *Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// DeleteCredential removes the credential file. A missing file is not an error.
func DeleteCredential(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ResolveToken returns the API token for the active profile. Explicit configuration
// (flag, environment or config file) takes precedence over the stored credential.
func ResolveToken(cfg config.Hook) (string, error) {
	if tok := strings.TrimSpace(cfg.GetString(common.TokenConfigPath)); tok != "" {
		return tok, nil
	}

	cred, err := LoadCredential(BuildDefaultCredentialFilePath(cfg.GetPath(), cfg.GetProfile()))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w for profile %s", ErrNoCredentials, cfg.GetProfile())
		}
		return "", err
	}
	if cred.Token == "" {
		return "", fmt.Errorf("%w for profile %s", ErrNoCredentials, cfg.GetProfile())
	}

	return cred.Token, nil
}

// RequestToken exchanges a username and password for an API token.
func RequestToken(
	ctx context.Context,
	client apiutil.Doer,
	baseURL string,
	username string,
	password string,
	tokenName string,
) (*Credential, error) {
	values, err := form.EncodeToValues(tokenRequest{Name: tokenName})
	if err != nil {
		return nil, fmt.Errorf("failed to encode token request: %w", err)
	}

	path := TokenPath
	if encoded := values.Encode(); encoded != "" {
		path += "?" + encoded
	}

	basic := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	res, err := apiutil.Request(ctx, client, http.MethodGet, baseURL, path, "",
		map[string]string{"Authorization": "Basic " + basic}, nil)
	if err != nil {
		return nil, err
	}

	if !res.OK() {
		return nil, fmt.Errorf("token request rejected: %s", statusText(res))
	}

	var body tokenResponse
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.Token == "" {
		return nil, fmt.Errorf("token response did not contain a token")
	}

	return &Credential{
		Token:      body.Token,
		Username:   username,
		BaseURL:    baseURL,
		ReceivedAt: time.Now(),
	}, nil
}

func statusText(res *apiutil.Result) string {
	if res.Status != "" {
		return res.Status
	}
	return fmt.Sprintf("%d %s", res.StatusCode, http.StatusText(res.StatusCode))
}
