package identity

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"locallink/internal/utils"
	"locallink/pkg/types"

	"github.com/gorilla/securecookie"
)

const (
	devicePrefix = "device_"
	deviceIDSize = 21

	// HeaderDeviceID lets non-browser clients present their identity
	// without a cookie jar.
	HeaderDeviceID = "X-Device-ID"
)

// NewDeviceID mints a fresh pseudonymous device identifier.
func NewDeviceID() string {
	return devicePrefix + utils.NanoIDSize(deviceIDSize)
}

// Provider derives and persists the stable pseudonymous device id for HTTP
// clients. The id is sealed in a securecookie so a browser cannot trivially
// forge someone else's, but it remains a weak bearer credential: whoever
// holds the value owns the posts created with it.
type Provider struct {
	cookieName string
	maxAge     int
	cookie     *securecookie.SecureCookie
}

func NewProvider(config *types.Config) (*Provider, error) {
	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil || len(hashKey) == 0 {
		return nil, errors.New("COOKIE_HASH_KEY must be base64 encoded and non-empty")
	}

	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil || len(blockKey) == 0 {
		return nil, errors.New("COOKIE_BLOCK_KEY must be base64 encoded and non-empty")
	}

	return &Provider{
		cookieName: config.DeviceCookieName,
		maxAge:     config.DeviceCookieMaxAge,
		cookie:     securecookie.New(hashKey, blockKey),
	}, nil
}

// DeviceID resolves the request's device identity without minting one.
func (p *Provider) DeviceID(r *http.Request) (string, bool) {
	if header := strings.TrimSpace(r.Header.Get(HeaderDeviceID)); header != "" {
		return header, true
	}

	cookie, err := r.Cookie(p.cookieName)
	if err != nil {
		return "", false
	}

	var deviceID string
	if err := p.cookie.Decode(p.cookieName, cookie.Value, &deviceID); err != nil {
		return "", false
	}

	return deviceID, deviceID != ""
}

// EnsureDevice returns the request's device id, minting and setting the
// sealed cookie when the request carries none (or an undecodable one).
func (p *Provider) EnsureDevice(w http.ResponseWriter, r *http.Request) (string, error) {
	if deviceID, ok := p.DeviceID(r); ok {
		return deviceID, nil
	}

	deviceID := NewDeviceID()

	encoded, err := p.cookie.Encode(p.cookieName, deviceID)
	if err != nil {
		return "", fmt.Errorf("encode device cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    encoded,
		Path:     "/",
		MaxAge:   p.maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return deviceID, nil
}

// LoadOrCreate reads a device id persisted at path, minting and writing
// one when absent. This is the identity path for CLI and library clients.
func LoadOrCreate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		if id := strings.TrimSpace(string(data)); id != "" {
			return id, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("read device id: %w", err)
	}

	deviceID := NewDeviceID()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create device id dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(deviceID+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write device id: %w", err)
	}

	return deviceID, nil
}
