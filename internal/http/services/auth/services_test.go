package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/cognitogate/internal/cognito"
	dto "github.com/dropDatabas3/cognitogate/internal/http/dto/auth"
)

// poolStub monta un Cognito falso que despacha por X-Amz-Target.
type poolStub struct {
	handlers map[string]http.HandlerFunc
	calls    int64
}

func newPoolStub(t *testing.T) (*poolStub, *cognito.Client) {
	t.Helper()
	s := &poolStub{handlers: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&s.calls, 1)
		op := r.Header.Get("X-Amz-Target")[len("AWSCognitoIdentityProviderService."):]
		h, ok := s.handlers[op]
		if !ok {
			t.Errorf("unexpected provider op %s", op)
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	client := cognito.New(cognito.Config{
		Region:       "eu-west-1",
		ClientID:     "client123",
		ClientSecret: "secret456",
		Endpoint:     srv.URL,
	})
	return s, client
}

func (s *poolStub) ok(op, body string) {
	s.handlers[op] = func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func (s *poolStub) reject(op, excType, msg string) {
	s.handlers[op] = func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"__type": excType, "message": msg})
	}
}

func TestRegistrationServiceValidation(t *testing.T) {
	_, client := newPoolStub(t)
	s := NewRegistrationService(RegistrationDeps{Client: client})

	_, err := s.Signup(context.Background(), dto.SignupRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrMissingFields)

	err = s.Confirm(context.Background(), dto.ConfirmRequest{Email: "a@x.com"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRegistrationServiceSignup(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewRegistrationService(RegistrationDeps{Client: client})

	stub.ok("SignUp", `{"UserSub":"sub-1","UserConfirmed":false,
		"CodeDeliveryDetails":{"Destination":"a***@x.com","DeliveryMedium":"EMAIL","AttributeName":"email"}}`)

	resp, err := s.Signup(context.Background(), dto.SignupRequest{Email: "a@x.com", Password: "Password1!"})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", resp.UserSub)
	require.NotNil(t, resp.CodeDelivery)
	assert.Equal(t, "EMAIL", resp.CodeDelivery.Medium)
}

func TestRegistrationServiceUserExists(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewRegistrationService(RegistrationDeps{Client: client})

	stub.reject("SignUp", "UsernameExistsException", "User already exists")

	_, err := s.Signup(context.Background(), dto.SignupRequest{Email: "a@x.com", Password: "Password1!"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRegistrationServiceConfirmRejected(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewRegistrationService(RegistrationDeps{Client: client})

	stub.reject("ConfirmSignUp", "CodeMismatchException", "Invalid verification code provided")

	err := s.Confirm(context.Background(), dto.ConfirmRequest{Email: "a@x.com", Code: "000000"})
	var rejected *ProviderRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Invalid verification code provided", rejected.Reason)
}

func TestRegistrationServiceDoubleConfirm(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewRegistrationService(RegistrationDeps{Client: client})

	// Una cuenta ya confirmada vuelve como rechazo del provider con su
	// mensaje, no como error de infraestructura.
	stub.reject("ConfirmSignUp", "NotAuthorizedException", "User cannot be confirmed. Current status is CONFIRMED")

	err := s.Confirm(context.Background(), dto.ConfirmRequest{Email: "a@x.com", Code: "123456"})
	var rejected *ProviderRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "CONFIRMED")
}

func TestSessionServiceLogin(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewSessionService(SessionDeps{Client: client})

	t.Run("ok", func(t *testing.T) {
		stub.ok("InitiateAuth", `{"AuthenticationResult":{
			"AccessToken":"at","IdToken":"it","RefreshToken":"rt","ExpiresIn":3600,"TokenType":"Bearer"}}`)
		resp, err := s.Login(context.Background(), dto.LoginRequest{Email: "a@x.com", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, "at", resp.AccessToken)
		assert.Equal(t, "rt", resp.RefreshToken)
	})

	t.Run("bad password", func(t *testing.T) {
		stub.reject("InitiateAuth", "NotAuthorizedException", "Incorrect username or password.")
		_, err := s.Login(context.Background(), dto.LoginRequest{Email: "a@x.com", Password: "bad"})
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("unknown user collapses into bad credentials", func(t *testing.T) {
		stub.reject("InitiateAuth", "UserNotFoundException", "User does not exist.")
		_, err := s.Login(context.Background(), dto.LoginRequest{Email: "ghost@x.com", Password: "pw"})
		assert.ErrorIs(t, err, ErrBadCredentials)
	})

	t.Run("not confirmed", func(t *testing.T) {
		stub.reject("InitiateAuth", "UserNotConfirmedException", "User is not confirmed.")
		_, err := s.Login(context.Background(), dto.LoginRequest{Email: "a@x.com", Password: "pw"})
		assert.ErrorIs(t, err, ErrNotConfirmed)
	})
}

func TestSessionServiceRefresh(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewSessionService(SessionDeps{Client: client})

	stub.reject("InitiateAuth", "NotAuthorizedException", "Refresh Token has been revoked")
	_, err := s.Refresh(context.Background(), dto.RefreshRequest{Email: "a@x.com", RefreshToken: "dead"})
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestPasswordServiceForgotDoesNotEnumerate(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewPasswordService(PasswordDeps{Client: client})

	stub.ok("ForgotPassword", `{"CodeDeliveryDetails":{
		"Destination":"a***@x.com","DeliveryMedium":"EMAIL","AttributeName":"email"}}`)
	known, err := s.Forgot(context.Background(), dto.ForgotPasswordRequest{Email: "a@x.com"})
	require.NoError(t, err)

	stub.reject("ForgotPassword", "UserNotFoundException", "User does not exist.")
	unknown, err := s.Forgot(context.Background(), dto.ForgotPasswordRequest{Email: "ghost@x.com"})
	require.NoError(t, err)

	// Misma respuesta exacta para cuenta conocida y desconocida.
	assert.Equal(t, known, unknown)
	assert.NotEmpty(t, known.Message)
}

func TestPasswordServiceReset(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewPasswordService(PasswordDeps{Client: client})

	stub.reject("ConfirmForgotPassword", "ExpiredCodeException", "Invalid code provided, please request a code again.")
	err := s.Reset(context.Background(), dto.ResetPasswordRequest{Email: "a@x.com", Code: "000", NewPassword: "New1!"})
	var rejected *ProviderRejectedError
	assert.ErrorAs(t, err, &rejected)
}

func TestProfileServiceGetCaches(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewProfileService(ProfileDeps{Client: client})

	stub.ok("GetUser", `{"Username":"sub-1","UserAttributes":[
		{"Name":"email","Value":"a@x.com"},{"Name":"name","Value":"Ana"}]}`)

	first, err := s.Get(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", first.Attributes["name"])

	// Segunda lectura con el mismo token sale del cache, sin red.
	before := atomic.LoadInt64(&stub.calls)
	second, err := s.Get(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, before, atomic.LoadInt64(&stub.calls))

	// Otro token no comparte entrada.
	_, err = s.Get(context.Background(), "token-2")
	require.NoError(t, err)
	assert.Equal(t, before+1, atomic.LoadInt64(&stub.calls))
}

func TestProfileServiceUpdateFiltersAttributes(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewProfileService(ProfileDeps{Client: client})

	var sent []map[string]string
	stub.handlers["UpdateUserAttributes"] = func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			UserAttributes []map[string]string `json:"UserAttributes"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		sent = body.UserAttributes
		_, _ = w.Write([]byte(`{}`))
	}
	stub.ok("GetUser", `{"Username":"sub-1","UserAttributes":[{"Name":"name","Value":"Ana María"}]}`)

	_, err := s.Update(context.Background(), "token-1", dto.ProfileUpdateRequest{
		"name":      "Ana María",
		"email":     "hijack@x.com", // no permitido: se descarta
		"token_use": "admin",        // idem
	})
	require.NoError(t, err)

	require.Len(t, sent, 1)
	assert.Equal(t, "name", sent[0]["Name"])
	assert.Equal(t, "Ana María", sent[0]["Value"])
}

func TestProfileServiceUpdateNothingAllowed(t *testing.T) {
	_, client := newPoolStub(t)
	s := NewProfileService(ProfileDeps{Client: client})

	_, err := s.Update(context.Background(), "token-1", dto.ProfileUpdateRequest{"email": "x@x.com"})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestProfileServiceUpdateInvalidatesCache(t *testing.T) {
	stub, client := newPoolStub(t)
	s := NewProfileService(ProfileDeps{Client: client})

	stub.ok("GetUser", `{"Username":"sub-1","UserAttributes":[{"Name":"name","Value":"Ana"}]}`)
	stub.ok("UpdateUserAttributes", `{}`)

	_, err := s.Get(context.Background(), "token-1")
	require.NoError(t, err)

	stub.ok("GetUser", `{"Username":"sub-1","UserAttributes":[{"Name":"name","Value":"Bea"}]}`)
	updated, err := s.Update(context.Background(), "token-1", dto.ProfileUpdateRequest{"name": "Bea"})
	require.NoError(t, err)
	assert.Equal(t, "Bea", updated.Attributes["name"])

	// Y la lectura posterior ve el valor nuevo, no el cacheado viejo.
	after, err := s.Get(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, "Bea", after.Attributes["name"])
}

func TestSocialService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/token" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = r.ParseForm()
		if r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at","id_token":"it","refresh_token":"rt","expires_in":3600,"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	hostedUI := cognito.NewHostedUI(cognito.HostedUIConfig{
		Domain:       srv.URL,
		ClientID:     "client123",
		ClientSecret: "secret456",
		RedirectURL:  "https://app.example.com/auth/google/callback",
	})
	s := NewSocialService(SocialDeps{HostedUI: hostedUI})

	t.Run("start", func(t *testing.T) {
		authorizeURL, state := s.Start(context.Background(), "Google")
		assert.NotEmpty(t, state)
		assert.Contains(t, authorizeURL, "/oauth2/authorize?")
		assert.Contains(t, authorizeURL, "identity_provider=Google")
		assert.Contains(t, authorizeURL, "state="+state)

		// Cada start genera un state distinto.
		_, state2 := s.Start(context.Background(), "Google")
		assert.NotEqual(t, state, state2)
	})

	t.Run("exchange ok", func(t *testing.T) {
		resp, err := s.Exchange(context.Background(), "good-code")
		require.NoError(t, err)
		assert.Equal(t, "at", resp.AccessToken)
	})

	t.Run("missing code", func(t *testing.T) {
		_, err := s.Exchange(context.Background(), "")
		assert.ErrorIs(t, err, ErrMissingCode)
	})

	t.Run("rejected exchange surfaces ExchangeError", func(t *testing.T) {
		_, err := s.Exchange(context.Background(), "bad-code")
		var exchangeErr *cognito.ExchangeError
		require.True(t, errors.As(err, &exchangeErr))
		assert.Equal(t, http.StatusBadRequest, exchangeErr.Status)
	})
}
