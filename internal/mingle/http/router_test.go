package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/mingle/internal/mingle/domain"
	"github.com/aussiebroadwan/mingle/internal/mingle/geocode"
	minglehttp "github.com/aussiebroadwan/mingle/internal/mingle/http"
	"github.com/aussiebroadwan/mingle/internal/mingle/mailer"
	"github.com/aussiebroadwan/mingle/internal/mingle/service"
	"github.com/aussiebroadwan/mingle/internal/mingle/store/drivers/memory"
	"github.com/aussiebroadwan/mingle/internal/mingle/weather"
	"github.com/aussiebroadwan/mingle/pkg/cryptox"
	"github.com/aussiebroadwan/mingle/pkg/minglesdk"
	"github.com/aussiebroadwan/mingle/pkg/slogx"
	"github.com/stretchr/testify/require"
)

const password = "correct-horse"

func TestMain(m *testing.M) {
	cryptox.SetPepper("test-pepper")
	os.Exit(m.Run())
}

type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *captureMailer) SendCode(_ context.Context, msg mailer.CodeEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[msg.Email] = msg.Code
	return nil
}

func (m *captureMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

// irvine is where every geocoded address lands, unless it mentions Nowhere.
var irvine = domain.Coordinate{Latitude: 33.6846, Longitude: -117.8265}

type fixedGeocoder struct{}

func (fixedGeocoder) Geocode(_ context.Context, address string) (domain.Coordinate, error) {
	if strings.Contains(address, "Nowhere") {
		return domain.Coordinate{}, geocode.ErrNotFound
	}
	return irvine, nil
}

type fakeForecaster struct {
	mu  sync.Mutex
	got []domain.Coordinate
}

func (f *fakeForecaster) FetchForecast(_ context.Context, lat, lon float64) *weather.Forecast {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, domain.Coordinate{Latitude: lat, Longitude: lon})
	return &weather.Forecast{High: 78.9, Low: 61.2}
}

type testEnv struct {
	client     *minglesdk.Client
	mail       *captureMailer
	geo        *service.Geolocator
	forecaster *fakeForecaster
	baseURL    string
}

func newEnv(t *testing.T, adminToken string) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slogx.Discard()

	blobs := memory.NewStore()
	ds := service.NewDomainStore(ctx, blobs, logger, "")
	mail := &captureMailer{codes: map[string]string{}}
	geo := service.NewGeolocator(ds, fixedGeocoder{}, logger, time.Second)
	forecaster := &fakeForecaster{}

	router := minglehttp.NewRouter("test", blobs, ds, logger)
	router.OTP = service.NewOTPService(blobs, mail, logger, "Mingle", 10*time.Minute, 0)
	router.Geolocator = geo
	router.Forecaster = forecaster
	router.AdminToken = adminToken
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		srv.Close()
		geo.Close()
	})

	return &testEnv{
		client:     minglesdk.NewClient(srv.URL),
		mail:       mail,
		geo:        geo,
		forecaster: forecaster,
		baseURL:    srv.URL,
	}
}

// register signs up a user over HTTP, leaving them logged in.
func (e *testEnv) register(t *testing.T, username, email string) minglesdk.UserResponse {
	t.Helper()
	ctx := context.Background()

	_, err := e.client.IssueCode(ctx, minglesdk.IssueCodeRequest{Email: email, Username: username})
	require.NoError(t, err)

	u, err := e.client.Register(ctx, minglesdk.RegisterRequest{
		Name:     username + " Name",
		Username: username,
		Email:    email,
		Password: password,
		Code:     e.mail.code(email),
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) login(t *testing.T, username string) {
	t.Helper()
	_, err := e.client.Login(context.Background(), minglesdk.LoginRequest{Username: username, Password: password})
	require.NoError(t, err)
}

func (e *testEnv) guest(email string) *minglesdk.Client {
	c := minglesdk.NewClient(e.baseURL)
	c.GuestEmail = email
	return c
}

func strPtr(s string) *string { return &s }

func requireAPIError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var apiErr *minglesdk.APIError
	require.True(t, errors.As(err, &apiErr), "expected APIError, got %v", err)
	require.Equal(t, status, apiErr.StatusCode)
	require.Equal(t, code, apiErr.Code)
}

func privateDinner() minglesdk.EventRequest {
	return minglesdk.EventRequest{
		Title:       "Dinner",
		Date:        time.Date(2026, 11, 1, 19, 0, 0, 0, time.UTC),
		City:        "Irvine",
		FullAddress: strPtr("1 Main St"),
		IsPublic:    false,
	}
}

func TestHealth(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	live, err := env.client.Livez(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := env.client.Readyz(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Storage)
}

func TestRegistrationFlow(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	_, err := env.client.CurrentUser(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized)

	issued, err := env.client.IssueCode(ctx, minglesdk.IssueCodeRequest{Email: "alice@x.com"})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Handle)
	require.Len(t, env.mail.code("alice@x.com"), 6)

	wrong := "000000"
	if env.mail.code("alice@x.com") == wrong {
		wrong = "111111"
	}
	_, err = env.client.Register(ctx, minglesdk.RegisterRequest{
		Name: "Alice", Username: "alice", Email: "alice@x.com", Password: password, Code: wrong,
	})
	requireAPIError(t, err, http.StatusBadRequest, minglesdk.ErrorCodeInvalidCode)

	u, err := env.client.Register(ctx, minglesdk.RegisterRequest{
		Name: "Alice", Username: "alice", Email: "alice@x.com", Password: password, Code: env.mail.code("alice@x.com"),
	})
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)

	me, err := env.client.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, u.ID, me.ID)

	_, err = env.client.IssueCode(ctx, minglesdk.IssueCodeRequest{Email: "other@x.com", Username: "alice"})
	requireAPIError(t, err, http.StatusConflict, minglesdk.ErrorCodeConflict)

	// Padding never reaches the duplicate check, let alone the mailer.
	_, err = env.client.IssueCode(ctx, minglesdk.IssueCodeRequest{Email: " alice@x.com "})
	requireAPIError(t, err, http.StatusBadRequest, minglesdk.ErrorCodeValidation)
	_, err = env.client.IssueCode(ctx, minglesdk.IssueCodeRequest{Email: "other@x.com", Username: " alice"})
	requireAPIError(t, err, http.StatusBadRequest, minglesdk.ErrorCodeValidation)
	require.Empty(t, env.mail.code("other@x.com"))

	require.NoError(t, env.client.Logout(ctx))
	_, err = env.client.CurrentUser(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized)

	_, err = env.client.Login(ctx, minglesdk.LoginRequest{Username: "alice", Password: "wrong-password"})
	requireAPIError(t, err, http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized)

	env.login(t, "alice")
	me, err = env.client.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, u.ID, me.ID)
}

func TestRegisterValidation(t *testing.T) {
	env := newEnv(t, "")

	_, err := env.client.Register(context.Background(), minglesdk.RegisterRequest{Username: "al"})

	var apiErr *minglesdk.APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Equal(t, minglesdk.ErrorCodeValidation, apiErr.Code)
	require.Contains(t, apiErr.Details, "username")
	require.Contains(t, apiErr.Details, "code")
}

func TestPrivateEventAccessFlow(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "host", "host@x.com")
	created, err := env.client.CreateEvent(ctx, privateDinner())
	require.NoError(t, err)
	require.True(t, created.IsHost)
	require.Equal(t, "1 Main St, Irvine", created.Address)
	env.geo.Wait()

	hostView, err := env.client.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, hostView.Location)
	require.InDelta(t, irvine.Latitude, hostView.Location.Latitude, 1e-9)
	require.NotNil(t, hostView.Summary)

	require.NoError(t, env.client.Logout(ctx))

	guest := env.guest("g@x.com")
	view, err := guest.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Irvine", view.Address)
	require.Nil(t, view.Location)
	require.Empty(t, view.AccessRequests)
	require.True(t, view.CanRequestAccess)
	require.False(t, view.CanRSVP)

	require.NoError(t, guest.RequestAccess(ctx, created.ID, minglesdk.AccessRequestRequest{}))
	// Repeats are accepted and ignored.
	require.NoError(t, guest.RequestAccess(ctx, created.ID, minglesdk.AccessRequestRequest{}))

	_, err = guest.SubmitRSVP(ctx, created.ID, minglesdk.RSVPRequest{PartySize: 1, Status: "going"})
	requireAPIError(t, err, http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized)

	env.login(t, "host")
	hostView, err = env.client.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, hostView.AccessRequests, 1)
	req := hostView.AccessRequests[0]
	require.Equal(t, "g@x.com", req.Email)
	require.Equal(t, "pending", req.Status)

	decided, err := env.client.ApproveRequest(ctx, created.ID, req.ID)
	require.NoError(t, err)
	require.Equal(t, "approved", decided.AccessRequests[0].Status)

	_, err = env.client.DenyRequest(ctx, created.ID, req.ID)
	requireAPIError(t, err, http.StatusConflict, minglesdk.ErrorCodeConflict)

	require.NoError(t, env.client.Logout(ctx))

	view, err = guest.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, view.IsApproved)
	require.Equal(t, "1 Main St, Irvine", view.Address)
	require.NotNil(t, view.Location)
	require.False(t, view.CanRequestAccess)

	// Another anonymous viewer still only sees the city.
	view, err = env.guest("stranger@x.com").GetEvent(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Irvine", view.Address)
}

func TestAccessRequestRules(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "host", "host@x.com")
	public := privateDinner()
	public.IsPublic = true
	pub, err := env.client.CreateEvent(ctx, public)
	require.NoError(t, err)
	priv, err := env.client.CreateEvent(ctx, privateDinner())
	require.NoError(t, err)
	require.NoError(t, env.client.Logout(ctx))

	anon := minglesdk.NewClient(env.baseURL)

	err = anon.RequestAccess(ctx, priv.ID, minglesdk.AccessRequestRequest{})
	requireAPIError(t, err, http.StatusBadRequest, minglesdk.ErrorCodeValidation)

	err = anon.RequestAccess(ctx, pub.ID, minglesdk.AccessRequestRequest{Email: "g@x.com"})
	requireAPIError(t, err, http.StatusConflict, minglesdk.ErrorCodeConflict)

	err = anon.RequestAccess(ctx, "not-an-id", minglesdk.AccessRequestRequest{Email: "g@x.com"})
	requireAPIError(t, err, http.StatusNotFound, minglesdk.ErrorCodeNotFound)

	require.NoError(t, anon.RequestAccess(ctx, priv.ID, minglesdk.AccessRequestRequest{Email: "g@x.com"}))
}

func TestHostOnlyOperations(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "host", "host@x.com")
	created, err := env.client.CreateEvent(ctx, privateDinner())
	require.NoError(t, err)

	share, err := env.client.ShareEvent(ctx, created.ID)
	require.NoError(t, err)
	require.Contains(t, share.Message, "Where: 1 Main St, Irvine")

	env.register(t, "other", "other@x.com")

	_, err = env.client.UpdateEvent(ctx, created.ID, privateDinner())
	requireAPIError(t, err, http.StatusForbidden, minglesdk.ErrorCodeForbidden)
	_, err = env.client.ShareEvent(ctx, created.ID)
	requireAPIError(t, err, http.StatusForbidden, minglesdk.ErrorCodeForbidden)
	err = env.client.DeleteEvent(ctx, created.ID)
	requireAPIError(t, err, http.StatusForbidden, minglesdk.ErrorCodeForbidden)

	// Access requests are host-only too, regardless of the request id.
	_, err = env.client.ApproveRequest(ctx, created.ID, created.ID)
	requireAPIError(t, err, http.StatusForbidden, minglesdk.ErrorCodeForbidden)

	env.login(t, "host")

	edit := privateDinner()
	edit.Title = "Late Dinner"
	edit.IsPublic = true
	updated, err := env.client.UpdateEvent(ctx, created.ID, edit)
	require.NoError(t, err)
	require.Equal(t, "Late Dinner", updated.Title)
	require.True(t, updated.IsPublic)

	require.NoError(t, env.client.DeleteEvent(ctx, created.ID))
	_, err = env.client.GetEvent(ctx, created.ID)
	requireAPIError(t, err, http.StatusNotFound, minglesdk.ErrorCodeNotFound)
}

func TestRSVPFlow(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "host", "host@x.com")
	public := privateDinner()
	public.IsPublic = true
	created, err := env.client.CreateEvent(ctx, public)
	require.NoError(t, err)

	_, err = env.client.SubmitRSVP(ctx, created.ID, minglesdk.RSVPRequest{PartySize: 2, Status: "going"})
	requireAPIError(t, err, http.StatusForbidden, minglesdk.ErrorCodeForbidden)

	env.register(t, "guest", "guest@x.com")

	_, err = env.client.SubmitRSVP(ctx, created.ID, minglesdk.RSVPRequest{PartySize: 0, Status: "going"})
	requireAPIError(t, err, http.StatusBadRequest, minglesdk.ErrorCodeValidation)

	view, err := env.client.SubmitRSVP(ctx, created.ID, minglesdk.RSVPRequest{PartySize: 2, Status: "going"})
	require.NoError(t, err)
	require.Equal(t, "host Name", view.HostName)
	require.Empty(t, view.RSVPs)

	_, err = env.client.SubmitRSVP(ctx, created.ID, minglesdk.RSVPRequest{PartySize: 3, Status: "maybe"})
	require.NoError(t, err)

	env.login(t, "host")
	mine, err := env.client.MyEvents(ctx)
	require.NoError(t, err)
	require.Len(t, mine.Events, 1)
	require.Len(t, mine.Events[0].RSVPs, 1)

	rsvp := mine.Events[0].RSVPs[0]
	require.Equal(t, "guest@x.com", rsvp.Email)
	require.Equal(t, 3, rsvp.PartySize)
	require.Equal(t, "maybe", rsvp.Status)
	require.Equal(t, "guest Name", *rsvp.Name)
	require.Equal(t, &minglesdk.RSVPSummaryResponse{Total: 3, Maybe: 3}, mine.Events[0].Summary)
}

func TestListEventsByDistance(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "host", "host@x.com")
	near := privateDinner()
	near.Title = "Near"
	near.Location = &minglesdk.Coordinate{Latitude: irvine.Latitude, Longitude: irvine.Longitude}
	_, err := env.client.CreateEvent(ctx, near)
	require.NoError(t, err)

	far := privateDinner()
	far.Title = "Far"
	far.City = "Sacramento"
	far.Location = &minglesdk.Coordinate{Latitude: 38.5816, Longitude: -121.4944}
	_, err = env.client.CreateEvent(ctx, far)
	require.NoError(t, err)
	require.NoError(t, env.client.Logout(ctx))

	anon := minglesdk.NewClient(env.baseURL)

	all, err := anon.ListEvents(ctx, minglesdk.EventQuery{})
	require.NoError(t, err)
	require.Len(t, all.Events, 2)

	miles, lat, lon := 30.0, irvine.Latitude, irvine.Longitude
	nearby, err := anon.ListEvents(ctx, minglesdk.EventQuery{MaxMiles: &miles, Lat: &lat, Lon: &lon})
	require.NoError(t, err)
	require.Len(t, nearby.Events, 1)
	require.Equal(t, "Near", nearby.Events[0].Title)
	require.Nil(t, nearby.Events[0].DistanceMiles)
	require.Nil(t, nearby.Events[0].Location)

	byText, err := anon.ListEvents(ctx, minglesdk.EventQuery{Text: "sacra"})
	require.NoError(t, err)
	require.Len(t, byText.Events, 1)
	require.Equal(t, "Far", byText.Events[0].Title)

	bad := -1.0
	_, err = anon.ListEvents(ctx, minglesdk.EventQuery{MaxMiles: &bad})
	requireAPIError(t, err, http.StatusBadRequest, minglesdk.ErrorCodeValidation)
}

func TestListEventsWithKnownLocationAndNoRadius(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "host", "host@x.com")
	brunch := privateDinner()
	brunch.Title = "Brunch"
	brunch.IsPublic = true
	brunch.Location = &minglesdk.Coordinate{Latitude: 33.7346, Longitude: -117.8265}
	_, err := env.client.CreateEvent(ctx, brunch)
	require.NoError(t, err)

	require.NoError(t, env.client.UpdateLocation(ctx, minglesdk.LocationRequest{Latitude: irvine.Latitude, Longitude: irvine.Longitude}))

	hosted, err := env.client.ListEvents(ctx, minglesdk.EventQuery{})
	require.NoError(t, err)
	require.Len(t, hosted.Events, 1)
	require.NotNil(t, hosted.Events[0].DistanceMiles)
	require.InDelta(t, 3.45, *hosted.Events[0].DistanceMiles, 0.1)

	zero := 0.0
	none, err := env.client.ListEvents(ctx, minglesdk.EventQuery{MaxMiles: &zero})
	require.NoError(t, err)
	require.Empty(t, none.Events)

	require.NoError(t, env.client.Logout(ctx))

	// The captured location outlives the session.
	anon := minglesdk.NewClient(env.baseURL)
	all, err := anon.ListEvents(ctx, minglesdk.EventQuery{})
	require.NoError(t, err)
	require.Len(t, all.Events, 1)
	require.Equal(t, "Brunch", all.Events[0].Title)
	require.Nil(t, all.Events[0].DistanceMiles)
	require.Nil(t, all.Events[0].Location)
}

func TestEventForecast(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "host", "host@x.com")
	noAddress := privateDinner()
	noAddress.FullAddress = nil
	noAddress.City = "Nowhere"
	created, err := env.client.CreateEvent(ctx, noAddress)
	require.NoError(t, err)
	env.geo.Wait()

	view, err := env.client.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Forecast)
	require.Equal(t, "78° / 61°", view.Forecast.Summary)

	env.forecaster.mu.Lock()
	defer env.forecaster.mu.Unlock()
	require.Equal(t, weather.FallbackCoordinate, env.forecaster.got[0])
}

func TestDeleteAccountRemovesHostedEvents(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "host", "host@x.com")
	created, err := env.client.CreateEvent(ctx, privateDinner())
	require.NoError(t, err)

	require.NoError(t, env.client.DeleteAccount(ctx))

	_, err = env.client.CurrentUser(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized)
	_, err = env.client.GetEvent(ctx, created.ID)
	requireAPIError(t, err, http.StatusNotFound, minglesdk.ErrorCodeNotFound)

	err = env.client.DeleteAccount(ctx)
	requireAPIError(t, err, http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized)
}

func TestProfileAndLocation(t *testing.T) {
	env := newEnv(t, "")
	ctx := context.Background()

	env.register(t, "taken", "taken@x.com")
	env.register(t, "alice", "alice@x.com")

	require.NoError(t, env.client.UpdateLocation(ctx, minglesdk.LocationRequest{Latitude: irvine.Latitude, Longitude: irvine.Longitude}))

	name := "Alice A."
	u, err := env.client.UpdateProfile(ctx, minglesdk.ProfileRequest{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Alice A.", u.Name)
	require.NotNil(t, u.LastLocation)

	taken := "taken@x.com"
	_, err = env.client.UpdateProfile(ctx, minglesdk.ProfileRequest{Email: &taken})
	requireAPIError(t, err, http.StatusConflict, minglesdk.ErrorCodeConflict)
}

func TestAdminReset(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled without a token", func(t *testing.T) {
		env := newEnv(t, "")
		err := env.client.Reset(ctx, "anything")
		requireAPIError(t, err, http.StatusNotFound, minglesdk.ErrorCodeNotFound)
	})

	t.Run("wipes everything", func(t *testing.T) {
		env := newEnv(t, "s3cret")
		env.register(t, "host", "host@x.com")
		_, err := env.client.CreateEvent(ctx, privateDinner())
		require.NoError(t, err)

		err = env.client.Reset(ctx, "wrong")
		requireAPIError(t, err, http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized)

		require.NoError(t, env.client.Reset(ctx, "s3cret"))

		all, err := env.client.ListEvents(ctx, minglesdk.EventQuery{})
		require.NoError(t, err)
		require.Empty(t, all.Events)
		_, err = env.client.CurrentUser(ctx)
		requireAPIError(t, err, http.StatusUnauthorized, minglesdk.ErrorCodeUnauthorized)
	})
}
