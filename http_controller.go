package auth

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

// ErrorResponse is the JSON error envelope returned by the controllers.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

type AuthControllerRoutes struct {
	Register string
	Login    string
	Validate string
	Me       string
}

type AuthController struct {
	Debug      bool
	Logger     Logger
	Auther     Authenticator
	Store      UserStore
	Routes     *AuthControllerRoutes
	ContextKey string
}

type AuthControllerOption func(*AuthController) *AuthController

func WithControllerAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerStore(store UserStore) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Store = store
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// WithControllerContextKey aligns the controller with a middleware that
// stores claims under a non-default locals key.
func WithControllerContextKey(key string) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.ContextKey = key
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:     defLogger{},
		ContextKey: DefaultContextKey,
		Routes: &AuthControllerRoutes{
			Register: "/register",
			Login:    "/login",
			Validate: "/validate",
			Me:       "/me",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.ContextKey == "" {
		c.ContextKey = DefaultContextKey
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	return c
}

// RegisterAuthRoutes mounts the auth endpoints on the given router, usually
// an /api/v1/auth group.
func RegisterAuthRoutes(app fiber.Router, opts ...AuthControllerOption) *AuthController {
	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Register, controller.RegisterPost)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Get(controller.Routes.Validate, controller.ValidateGet)
	app.Get(controller.Routes.Me, controller.MeGet)

	return controller
}

func (a *AuthController) RegisterPost(ctx *fiber.Ctx) error {
	payload := new(RegisterRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse registration payload").
			WithCode(errors.CodeBadRequest))
	}

	if a.Debug {
		fmt.Println("======= AUTH REGISTER ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("============================")
	}

	a.Logger.Info("Registration request received", "email", payload.Email)

	result, err := a.Auther.Register(ctx.Context(), payload.Email, payload.Username, payload.Password)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(result)
}

func (a *AuthController) LoginPost(ctx *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := ctx.BodyParser(payload); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryBadInput, "unable to parse login payload").
			WithCode(errors.CodeBadRequest))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(ctx, errors.Wrap(err, errors.CategoryValidation, "invalid login payload").
			WithCode(errors.CodeBadRequest))
	}

	a.Logger.Info("Login request received", "email", payload.Email)

	result, err := a.Auther.Login(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return a.renderError(ctx, err)
	}

	return ctx.JSON(result)
}

// ValidateGet reports token validity. It always answers 200 with a
// {valid, message} body; failure detail never leaves the service.
func (a *AuthController) ValidateGet(ctx *fiber.Ctx) error {
	a.Logger.Debug("Token validation request received")
	status := a.Auther.ValidateToken(ctx.Get(HeaderString))
	return ctx.JSON(status)
}

// MeGet resolves the calling identity. When the route sits behind the JWT
// middleware the claims come from locals; otherwise the Authorization header
// is validated directly.
func (a *AuthController) MeGet(ctx *fiber.Ctx) error {
	userID := a.localUserID(ctx)

	if userID == "" {
		id, err := a.Auther.IdentityFromToken(ctx.Get(HeaderString))
		if err != nil {
			return a.renderError(ctx, err)
		}
		userID = id
	}

	if a.Store != nil {
		if user, err := a.Store.FindByID(ctx.Context(), userID); err == nil {
			return ctx.JSON(fiber.Map{
				"user_id":  userID,
				"email":    user.Email,
				"username": user.Username,
			})
		}
	}

	return ctx.JSON(fiber.Map{"user_id": userID})
}

func (a *AuthController) localUserID(ctx *fiber.Ctx) string {
	if claims, ok := ctx.Locals(a.ContextKey).(AuthClaims); ok {
		return claims.UserID()
	}
	return ""
}

func (a *AuthController) renderError(ctx *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected error occurred")
	}

	status := int(richErr.Code)
	if status == 0 {
		status = fiber.StatusInternalServerError
	}

	label := richErr.TextCode
	if label == "" {
		label = string(richErr.Category)
	}

	if status >= fiber.StatusInternalServerError {
		a.Logger.Error("Unexpected error handling request", "error", err)
	} else {
		a.Logger.Warn("Request rejected", "error", richErr.Message)
	}

	return ctx.Status(status).JSON(ErrorResponse{
		Error:     label,
		Message:   richErr.Message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
