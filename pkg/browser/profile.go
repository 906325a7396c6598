// Package browser configures the embedded web view profile so login state
// survives restarts. The view itself lives in the GUI layer; this package
// works against a small interface so the persistence rules are testable
// without a running toolkit.
package browser

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/neteasedesktop/shell/errors"
	"github.com/neteasedesktop/shell/logging"
)

// Cookie persistence policies understood by the web view.
type CookiePolicy string

const (
	CookiePolicyNoPersistent    CookiePolicy = "no_persistent"
	CookiePolicyAllowPersistent CookiePolicy = "allow_persistent"
	CookiePolicyForcePersistent CookiePolicy = "force_persistent"
)

// HTTP cache backends understood by the web view.
type CacheType string

const (
	CacheTypeMemory CacheType = "memory"
	CacheTypeDisk   CacheType = "disk"
)

// userAgentTag is appended to the toolkit's default user agent so the site
// can identify the desktop shell.
const userAgentTag = "NetEaseMusicDesktop/1.0"

// Profile is the subset of the web view profile the shell configures.
// Setters apply a value; getters read the value back so configuration can
// be verified, since some toolkits silently ignore unsupported settings.
type Profile interface {
	SetPersistentStoragePath(path string)
	PersistentStoragePath() string

	SetCookiePolicy(policy CookiePolicy)
	CookiePolicy() CookiePolicy

	SetCacheType(t CacheType)
	CacheType() CacheType

	SetUserAgent(ua string)
	UserAgent() string

	SetLocalStorageEnabled(enabled bool)
	LocalStorageEnabled() bool
}

// Configurator applies and verifies the persistence settings on a profile.
type Configurator struct {
	storagePath string
	logger      *logrus.Entry
}

// NewConfigurator prepares persistence configuration targeting storagePath.
func NewConfigurator(storagePath string) *Configurator {
	return &Configurator{
		storagePath: storagePath,
		logger:      logging.NewLogger("browser").WithField("storage", storagePath),
	}
}

// ConfigurePersistence applies the settings required for login data to
// survive restarts: on-disk profile storage, forced cookie persistence,
// disk HTTP cache, local storage, and a tagged user agent. Every setting is
// read back afterwards; a mismatch is logged as a warning but does not fail
// the call, matching how the toolkit treats unsupported settings.
func (c *Configurator) ConfigurePersistence(p Profile) error {
	if p == nil {
		return errors.New(errors.ErrCodeInvalidInput, "profile is required")
	}

	p.SetPersistentStoragePath(c.storagePath)
	p.SetCookiePolicy(CookiePolicyForcePersistent)
	p.SetCacheType(CacheTypeDisk)
	p.SetLocalStorageEnabled(true)

	if ua := p.UserAgent(); ua != "" && !strings.Contains(ua, "NetEaseMusicDesktop") {
		p.SetUserAgent(ua + " " + userAgentTag)
	}

	c.verify(p)
	c.logger.Info("Persistent profile configured")
	return nil
}

func (c *Configurator) verify(p Profile) {
	if got := p.PersistentStoragePath(); got != c.storagePath {
		c.logger.WithFields(logrus.Fields{
			"want": c.storagePath,
			"got":  got,
		}).Warn("Storage path did not apply")
	}
	if got := p.CookiePolicy(); got != CookiePolicyForcePersistent {
		c.logger.WithField("got", got).Warn("Cookie policy did not apply")
	}
	if got := p.CacheType(); got != CacheTypeDisk {
		c.logger.WithField("got", got).Warn("Cache type did not apply")
	}
	if !p.LocalStorageEnabled() {
		c.logger.Warn("Local storage did not enable")
	}
}
