//go:build cgo

package pkcs11

import (
	"errors"
	"fmt"
	"sync"

	"github.com/MrEthical07/padlock/provider"
	p11 "github.com/miekg/pkcs11"
	"go.uber.org/zap"
)

// Module is a loaded PKCS#11 library with a logged-in user session.
type Module struct {
	ctx    *p11.Ctx
	slot   uint
	cfg    Config
	logger *zap.Logger

	mu     sync.Mutex
	login  p11.SessionHandle
	closed bool
}

// Open loads cfg.Module, selects the slot and logs in with cfg.PIN.
func Open(cfg Config, logger *zap.Logger) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx := p11.New(cfg.Module)
	if ctx == nil {
		return nil, fmt.Errorf("pkcs11: cannot load %s", cfg.Module)
	}
	if err := ctx.Initialize(); err != nil {
		ctx.Destroy()
		return nil, fmt.Errorf("pkcs11: initialize: %w", err)
	}

	slot, err := selectSlot(ctx, cfg.Slot)
	if err != nil {
		finalize(ctx)
		return nil, err
	}

	login, err := ctx.OpenSession(slot, p11.CKF_SERIAL_SESSION)
	if err != nil {
		finalize(ctx)
		return nil, fmt.Errorf("pkcs11: open session: %w", err)
	}
	if err := ctx.Login(login, p11.CKU_USER, cfg.PIN); err != nil && !alreadyLoggedIn(err) {
		_ = ctx.CloseSession(login)
		finalize(ctx)
		return nil, fmt.Errorf("pkcs11: login: %w", err)
	}

	logger.Info("pkcs11: module opened",
		zap.String("module", cfg.Module),
		zap.Uint("slot", slot),
		zap.String("algorithm", cfg.Algorithm),
	)

	return &Module{
		ctx:    ctx,
		slot:   slot,
		cfg:    cfg,
		logger: logger,
		login:  login,
	}, nil
}

func selectSlot(ctx *p11.Ctx, want int) (uint, error) {
	slots, err := ctx.GetSlotList(true)
	if err != nil {
		return 0, fmt.Errorf("pkcs11: list slots: %w", err)
	}
	if len(slots) == 0 {
		return 0, fmt.Errorf("pkcs11: no slot with a token")
	}
	if want < 0 {
		return slots[0], nil
	}
	for _, s := range slots {
		if s == uint(want) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("pkcs11: slot %d has no token", want)
}

func alreadyLoggedIn(err error) bool {
	var perr p11.Error
	return errors.As(err, &perr) && perr == p11.CKR_USER_ALREADY_LOGGED_IN
}

func finalize(ctx *p11.Ctx) {
	_ = ctx.Finalize()
	ctx.Destroy()
}

// NewSigner implements provider.SignerFactory. Each signer opens its own
// session and looks up the key by label.
func (m *Module) NewSigner() (provider.Signer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	hash, err := digestFor(m.cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	session, err := m.ctx.OpenSession(m.slot, p11.CKF_SERIAL_SESSION)
	if err != nil {
		return nil, fmt.Errorf("pkcs11: open session: %w", err)
	}

	key, err := m.findKey(session)
	if err != nil {
		_ = m.ctx.CloseSession(session)
		return nil, err
	}

	return &Signer{
		ctx:     m.ctx,
		session: session,
		key:     key,
		alg:     m.cfg.Algorithm,
		hash:    hash,
	}, nil
}

func (m *Module) findKey(session p11.SessionHandle) (p11.ObjectHandle, error) {
	template := []*p11.Attribute{
		p11.NewAttribute(p11.CKA_CLASS, p11.CKO_PRIVATE_KEY),
		p11.NewAttribute(p11.CKA_KEY_TYPE, p11.CKK_EC),
		p11.NewAttribute(p11.CKA_LABEL, m.cfg.KeyLabel),
	}
	if err := m.ctx.FindObjectsInit(session, template); err != nil {
		return 0, fmt.Errorf("pkcs11: find key: %w", err)
	}
	defer func() { _ = m.ctx.FindObjectsFinal(session) }()

	handles, _, err := m.ctx.FindObjects(session, 1)
	if err != nil {
		return 0, fmt.Errorf("pkcs11: find key: %w", err)
	}
	if len(handles) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrKeyNotFound, m.cfg.KeyLabel)
	}
	return handles[0], nil
}

// Close logs out and unloads the library. Signers still open stop working.
func (m *Module) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	if err := m.ctx.Logout(m.login); err != nil {
		errs = append(errs, fmt.Errorf("pkcs11: logout: %w", err))
	}
	if err := m.ctx.CloseSession(m.login); err != nil {
		errs = append(errs, fmt.Errorf("pkcs11: close session: %w", err))
	}
	if err := m.ctx.Finalize(); err != nil {
		errs = append(errs, fmt.Errorf("pkcs11: finalize: %w", err))
	}
	m.ctx.Destroy()

	m.logger.Info("pkcs11: module closed", zap.String("module", m.cfg.Module))
	return errors.Join(errs...)
}
