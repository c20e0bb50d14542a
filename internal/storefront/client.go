// Package storefront is the typed client of the storefront API. Reads go
// through a shared query cache; writes are cache mutations that invalidate
// the reads they affect.
package storefront

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"jewelry-storefront/internal/api"
	"jewelry-storefront/internal/cartstore"
	"jewelry-storefront/internal/domain"
	"jewelry-storefront/internal/enrich"
	"jewelry-storefront/internal/logging"
	"jewelry-storefront/internal/querycache"
	"jewelry-storefront/internal/session"
	"jewelry-storefront/internal/transport"
)

// Cache tag types.
const (
	TagProducts   = "Products"
	TagCategories = "Categories"
	TagCart       = "Cart"
	TagAddress    = "Address"
	TagOrder      = "Order"
)

// Tag ids naming whole listings.
const (
	ListID       = "LIST"
	FreshDropsID = "FRESH_DROPS"
)

// Client is safe for concurrent use. Build one per process with New.
type Client struct {
	http    *transport.Client
	cache   *querycache.Cache
	session *session.Store
	cart    *cartstore.Store
	enrich  *enrich.Aggregator
	logger  *zap.Logger
}

type options struct {
	httpClient *http.Client
	logger     *zap.Logger
	cacheOpts  []querycache.Option
}

type Option func(*options)

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithCacheOptions configures the query cache.
func WithCacheOptions(opts ...querycache.Option) Option {
	return func(o *options) { o.cacheOpts = append(o.cacheOpts, opts...) }
}

// New builds a Client for the API at baseURL. The session supplies the bearer
// token and is signed out whenever the API answers 401.
func New(baseURL string, sess *session.Store, opts ...Option) (*Client, error) {
	o := options{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = logging.OrNop(o.logger)
	if sess == nil {
		sess = session.New(nil, o.logger)
	}

	c := &Client{
		session: sess,
		cart:    cartstore.New(),
		logger:  o.logger,
	}
	c.cache = querycache.New(append([]querycache.Option{querycache.WithLogger(o.logger)}, o.cacheOpts...)...)
	hc, err := transport.New(baseURL,
		transport.WithHTTPClient(o.httpClient),
		transport.WithTokenSource(sess),
		transport.WithUnauthorizedHandler(c.handleUnauthorized),
		transport.WithLogger(o.logger),
	)
	if err != nil {
		c.cache.Close()
		return nil, err
	}
	c.http = hc
	c.enrich = enrich.NewAggregator(c.cache, c.ProductsByIDsQuery)
	return c, nil
}

func (c *Client) Cache() *querycache.Cache    { return c.cache }
func (c *Client) Session() *session.Store     { return c.session }
func (c *Client) CartStore() *cartstore.Store { return c.cart }

// Close stops background cache refreshes.
func (c *Client) Close() {
	c.cache.Close()
}

func (c *Client) handleUnauthorized() {
	c.logger.Info("session rejected by api, signing out")
	if err := c.session.Logout(); err != nil {
		c.logger.Warn("clear session", zap.Error(err))
	}
	c.cache.Reset()
}

// SignUp registers an account. When the API also signs the user in, the
// session is updated.
func (c *Client) SignUp(ctx context.Context, in api.SignUpRequest) (api.AuthResponse, error) {
	var out api.AuthResponse
	if in.Email == "" {
		return out, domain.Invalid("email", "required")
	}
	if in.Password == "" {
		return out, domain.Invalid("password", "required")
	}
	if _, err := c.http.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/api/signup", Body: in}, &out); err != nil {
		return out, errors.Wrap(err, "sign up")
	}
	if err := c.adopt(out); err != nil {
		return out, err
	}
	return out, nil
}

// Login signs in and stores the credentials.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	if email == "" {
		return domain.User{}, domain.Invalid("email", "required")
	}
	if password == "" {
		return domain.User{}, domain.Invalid("password", "required")
	}
	var out api.AuthResponse
	req := transport.Request{Method: http.MethodPost, Path: "/api/signin", Body: api.SignInRequest{Email: email, Password: password}}
	if _, err := c.http.Do(ctx, req, &out); err != nil {
		return domain.User{}, errors.Wrap(err, "sign in")
	}
	if out.User == nil || out.Token == "" {
		return domain.User{}, errors.New("sign in: response carries no credentials")
	}
	if err := c.adopt(out); err != nil {
		return domain.User{}, err
	}
	return *out.User, nil
}

func (c *Client) adopt(out api.AuthResponse) error {
	if out.User == nil || out.Token == "" {
		return nil
	}
	// Cached reads belong to the previous user.
	c.cache.Reset()
	if err := c.session.SetCredentials(*out.User, out.Token); err != nil {
		return errors.Wrap(err, "store session")
	}
	return nil
}

// Logout tells the API and always clears the local session, even when the
// call fails.
func (c *Client) Logout(ctx context.Context) error {
	var callErr error
	if c.session.Token() != "" {
		_, callErr = c.http.Do(ctx, transport.Request{Method: http.MethodPost, Path: "/api/signout"}, nil)
	}
	if err := c.session.Logout(); err != nil {
		return errors.Wrap(err, "clear session")
	}
	c.cache.Reset()
	if callErr != nil && !transport.IsUnauthorized(callErr) {
		return errors.Wrap(callErr, "sign out")
	}
	return nil
}

// ForgotPassword asks the API to send a verification code to email.
func (c *Client) ForgotPassword(ctx context.Context, email string) (string, error) {
	if email == "" {
		return "", domain.Invalid("email", "required")
	}
	var out api.MessageResponse
	req := transport.Request{Method: http.MethodPost, Path: "/api/user/forgotpassword", Body: api.ForgotPasswordRequest{Email: email}}
	if _, err := c.http.Do(ctx, req, &out); err != nil {
		return "", errors.Wrap(err, "forgot password")
	}
	return out.Message, nil
}

// VerifyCode checks a code sent by ForgotPassword.
func (c *Client) VerifyCode(ctx context.Context, email, code string) (string, error) {
	return c.verifyCode(ctx, api.VerifyCodeRequest{Email: email, Code: code})
}

// ResetPassword checks a code sent by ForgotPassword and sets a new password.
// Existing sessions of the account are revoked by the server.
func (c *Client) ResetPassword(ctx context.Context, email, code, newPassword string) (string, error) {
	if newPassword == "" {
		return "", domain.Invalid("newPassword", "required")
	}
	return c.verifyCode(ctx, api.VerifyCodeRequest{Email: email, Code: code, NewPassword: newPassword})
}

func (c *Client) verifyCode(ctx context.Context, body api.VerifyCodeRequest) (string, error) {
	if body.Email == "" {
		return "", domain.Invalid("email", "required")
	}
	if body.Code == "" {
		return "", domain.Invalid("code", "required")
	}
	var out api.MessageResponse
	req := transport.Request{Method: http.MethodPost, Path: "/api/user/verifyCode", Body: body}
	if _, err := c.http.Do(ctx, req, &out); err != nil {
		return "", errors.Wrap(err, "verify code")
	}
	return out.Message, nil
}

// wrap annotates err with op, keeping nil as nil.
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, op)
}
