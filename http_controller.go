package accounts

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
)

// AuthController exposes the registration and login flows over HTTP.
type AuthController struct {
	Logger   Logger
	Auther   Authenticator
	Register *RegisterUserHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Register == nil {
		panic("Missing RegisterUserHandler in auth controller...")
	}

	return c
}

func WithAuthenticator(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithRegisterHandler(handler *RegisterUserHandler) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Register = handler
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Logger = logger
		return c
	}
}

// RegisterAuthRoutes mounts the auth endpoints on the app.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController, tokens TokenService) {
	app.Post("/users/login", controller.LoginPost)
	app.Post("/users/registration", controller.RegistrationCreate)
	app.Get("/users/me", RequireAuth(tokens), controller.CurrentUser)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	view, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		a.Logger.Info("Login failed", "error", err)
		return err
	}

	return c.JSON(view)
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegisterUserMessage)

	if err := c.BodyParser(payload); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid request payload").
			WithCode(goerrors.CodeBadRequest)
	}

	if err := payload.Validate(); err != nil {
		return err
	}

	view, err := a.Register.Execute(c.UserContext(), *payload)
	if err != nil {
		a.Logger.Info("Registration failed", "error", err)
		return err
	}

	return c.JSON(view)
}

func (a *AuthController) CurrentUser(c *fiber.Ctx) error {
	claims, ok := ClaimsFromContext(c)
	if !ok {
		return goerrors.New("missing session claims", goerrors.CategoryAuth).
			WithTextCode("CLAIMS_MISSING").
			WithCode(goerrors.CodeUnauthorized)
	}

	view, err := a.Auther.CurrentUser(c.UserContext(), claims.Username())
	if err != nil {
		return err
	}

	return c.JSON(view)
}
