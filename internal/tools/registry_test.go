package tools_test

import (
	"bookingAgent/internal/agent"
	"bookingAgent/internal/models"
	"bookingAgent/internal/sms"
	"bookingAgent/internal/storage/memory"
	"bookingAgent/internal/tools"
	"bookingAgent/internal/tools/mocks"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)

type fixture struct {
	store    *memory.Storage
	sender   *mocks.Sender
	registry *tools.Registry
	user     *models.User
	museum   *models.Event
	show     *models.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	seq := 0
	store, err := memory.New(
		memory.WithClock(func() time.Time { return fixedNow }),
		memory.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	require.NoError(t, err)

	ctx := context.Background()

	user, err := store.CreateUser(ctx, models.User{Name: "Asha Rao", Phone: "+919812345670"})
	require.NoError(t, err)

	museum, err := store.CreateEvent(ctx, models.Event{
		Title:       "Science Museum",
		Category:    "museum",
		TicketPrice: 250,
		Start:       time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 3, 31, 18, 0, 0, 0, time.UTC),
		Capacity:    2,
	})
	require.NoError(t, err)

	show, err := store.CreateEvent(ctx, models.Event{
		Title:       "Light Show",
		Category:    "show",
		TicketPrice: 100,
		Start:       time.Date(2025, 3, 14, 19, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 3, 14, 21, 0, 0, 0, time.UTC),
		Capacity:    50,
	})
	require.NoError(t, err)

	sender := mocks.NewSender(t)

	return &fixture{
		store:  store,
		sender: sender,
		registry: tools.New(store, sender,
			tools.WithClock(func() time.Time { return fixedNow }),
			tools.WithLocation(time.UTC),
		),
		user:   user,
		museum: museum,
		show:   show,
	}
}

func (f *fixture) call(t *testing.T, name, args string) agent.ToolResult {
	t.Helper()

	res, err := f.registry.Execute(context.Background(), agent.ToolCall{ID: "call-1", Name: name, Arguments: args})
	require.NoError(t, err)
	assert.Equal(t, "call-1", res.CallID)
	assert.Equal(t, name, res.Name)

	return res
}

func errorOf(t *testing.T, res agent.ToolResult) string {
	t.Helper()

	require.True(t, res.IsError, "expected error observation, got %s", res.Content)

	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.Content), &body))

	return body.Error
}

func TestDefinitionsCoverCatalog(t *testing.T) {
	t.Parallel()

	reg := tools.New(nil, nil)
	defs := reg.Definitions()

	require.Len(t, defs, len(tools.Kinds))
	for i, k := range tools.Kinds {
		assert.Equal(t, k.String(), defs[i].Name)
		assert.NotEmpty(t, defs[i].Description)
		assert.Equal(t, "object", defs[i].InputSchema["type"])

		parsed, ok := tools.ParseKind(defs[i].Name)
		require.True(t, ok)
		assert.Equal(t, k, parsed)
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res := f.call(t, "DeleteEverything", "{}")
	assert.Contains(t, errorOf(t, res), "unknown tool")
}

func TestExecute_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		tool    string
		args    string
		wantErr string
	}{
		{name: "malformed json", tool: "BookEvent", args: `{"user_id":`, wantErr: "malformed input"},
		{name: "missing quantity", tool: "BookEvent", args: `{"user_id":"id-1","event_id":"id-2","visit_date":"2025-03-14"}`, wantErr: "field quantity is required"},
		{name: "negative quantity", tool: "BookEvent", args: `{"user_id":"id-1","event_id":"id-2","visit_date":"2025-03-14","quantity":-1}`, wantErr: "field quantity must be greater than 0"},
		{name: "quantity above max", tool: "BookEvent", args: `{"user_id":"id-1","event_id":"id-2","visit_date":"2025-03-14","quantity":100001}`, wantErr: "field quantity must be at most 100000"},
		{name: "bad date", tool: "SearchEvents", args: `{"date":"14/03/2025"}`, wantErr: "field date must match layout"},
		{name: "bad email", tool: "CreateUser", args: `{"name":"Ravi","email":"nope"}`, wantErr: "field email is not a valid email"},
		{name: "bad phone", tool: "CreateUser", args: `{"name":"Ravi","phone":"12345"}`, wantErr: "field phone is not a valid e164"},
		{name: "object required", tool: "BookEvent", args: `id-2`, wantErr: "input must be a JSON object"},
		{name: "empty calculator", tool: "Calculator", args: ``, wantErr: "field expression is required"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)

			res := f.call(t, tc.tool, tc.args)
			assert.Contains(t, errorOf(t, res), tc.wantErr)
		})
	}
}

func TestExecute_Users(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res := f.call(t, "SearchUsers", "asha")
	require.False(t, res.IsError)
	var found []models.User
	require.NoError(t, json.Unmarshal([]byte(res.Content), &found))
	require.Len(t, found, 1)
	assert.Equal(t, f.user.ID, found[0].ID)

	res = f.call(t, "SearchUsers", `{"name":"nobody"}`)
	assert.Equal(t, "[]", res.Content)

	res = f.call(t, "CreateUser", `{"name":" Ravi Kumar ","email":"ravi@example.com"}`)
	require.False(t, res.IsError)
	var created models.User
	require.NoError(t, json.Unmarshal([]byte(res.Content), &created))
	assert.Equal(t, "Ravi Kumar", created.Name)
	assert.NotEmpty(t, created.ID)

	res = f.call(t, "UpdateUser", fmt.Sprintf(`{"user_id":%q,"address":"12 MG Road"}`, created.ID))
	require.False(t, res.IsError)
	var updated models.User
	require.NoError(t, json.Unmarshal([]byte(res.Content), &updated))
	assert.Equal(t, "12 MG Road", updated.Address)
	assert.Equal(t, "ravi@example.com", updated.Email)

	res = f.call(t, "UpdateUser", `{"user_id":"missing","name":"X"}`)
	assert.Contains(t, errorOf(t, res), "not found")
}

func TestExecute_SearchEvents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		args   string
		titles []string
	}{
		{name: "date covers both", args: `{"date":"2025-03-14"}`, titles: []string{"Science Museum", "Light Show"}},
		{name: "time excludes show", args: `{"date":"2025-03-14","time":"11:00"}`, titles: []string{"Science Museum"}},
		{name: "time inside show", args: `{"date":"2025-03-14","time":"20:00"}`, titles: []string{"Science Museum", "Light Show"}},
		{name: "after museum closes", args: `{"date":"2025-03-31","time":"19:00"}`, titles: []string{}},
		{name: "outside windows", args: `{"date":"2025-04-02"}`, titles: []string{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t)

			res := f.call(t, "SearchEvents", tc.args)
			require.False(t, res.IsError, res.Content)

			var events []models.Event
			require.NoError(t, json.Unmarshal([]byte(res.Content), &events))

			titles := []string{}
			for _, e := range events {
				titles = append(titles, e.Title)
			}
			assert.ElementsMatch(t, tc.titles, titles)
		})
	}
}

func TestExecute_SearchEventsSkipsSoldOut(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	_, err := f.store.BookEvent(context.Background(), models.BookingRequest{
		UserID: f.user.ID, EventID: f.museum.ID, VisitDate: "2025-03-14", Quantity: 2,
	})
	require.NoError(t, err)

	res := f.call(t, "SearchEvents", `{"date":"2025-03-14","time":"11:00"}`)
	assert.Equal(t, "[]", res.Content)

	res = f.call(t, "CheckEventAvailability", f.museum.ID)
	var av models.Availability
	require.NoError(t, json.Unmarshal([]byte(res.Content), &av))
	assert.False(t, av.Available)
	assert.Equal(t, "No tickets available.", av.Message)
}

func TestExecute_BookingLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	book := fmt.Sprintf(`{"user_id":%q,"event_id":%q,"visit_date":"2025-03-14","quantity":%%d}`, f.user.ID, f.museum.ID)

	res := f.call(t, "BookEvent", fmt.Sprintf(book, 2))
	require.False(t, res.IsError, res.Content)
	var booking models.Booking
	require.NoError(t, json.Unmarshal([]byte(res.Content), &booking))
	assert.Equal(t, 500.0, booking.TotalPrice)

	res = f.call(t, "BookEvent", fmt.Sprintf(book, 1))
	assert.Contains(t, errorOf(t, res), "not enough capacity available")

	res = f.call(t, "GetUserBookings", f.user.ID)
	var mine []tools.UserBooking
	require.NoError(t, json.Unmarshal([]byte(res.Content), &mine))
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Event)
	assert.Equal(t, "Science Museum", mine[0].Event.Title)

	res = f.call(t, "GetBookingDetails", booking.ID)
	assert.False(t, res.IsError)

	res = f.call(t, "CancelBooking", booking.ID)
	assert.JSONEq(t, fmt.Sprintf(`{"booking_id":%q,"cancelled":true}`, booking.ID), res.Content)

	res = f.call(t, "CancelBooking", booking.ID)
	assert.False(t, res.IsError)
	assert.JSONEq(t, fmt.Sprintf(`{"booking_id":%q,"cancelled":false}`, booking.ID), res.Content)

	res = f.call(t, "BookEvent", fmt.Sprintf(book, 1))
	assert.False(t, res.IsError, res.Content)
}

func TestExecute_BookEventHugeQuantityKeepsCapacity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	book := fmt.Sprintf(`{"user_id":%q,"event_id":%q,"visit_date":"2025-03-14","quantity":%%d}`, f.user.ID, f.museum.ID)

	res := f.call(t, "BookEvent", fmt.Sprintf(book, 1))
	require.False(t, res.IsError, res.Content)

	res = f.call(t, "BookEvent", fmt.Sprintf(book, math.MaxInt64))
	assert.Contains(t, errorOf(t, res), "field quantity must be at most 100000")

	res = f.call(t, "BookEvent", fmt.Sprintf(book, models.MaxQuantity))
	assert.Contains(t, errorOf(t, res), "not enough capacity available")

	res = f.call(t, "BookEvent", fmt.Sprintf(book, 5))
	assert.Contains(t, errorOf(t, res), "not enough capacity available")

	count, err := f.store.CountByEvent(ctx, f.museum.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestExecute_BookEventOutsideWindow(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	args := fmt.Sprintf(`{"user_id":%q,"event_id":%q,"visit_date":"2025-05-01","quantity":1}`, f.user.ID, f.museum.ID)
	res := f.call(t, "BookEvent", args)
	assert.Contains(t, errorOf(t, res), "is not open on 2025-05-01")

	args = fmt.Sprintf(`{"user_id":"ghost","event_id":%q,"visit_date":"2025-03-14","quantity":1}`, f.museum.ID)
	res = f.call(t, "BookEvent", args)
	assert.Contains(t, errorOf(t, res), "not found")
}

func TestExecute_Utilities(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	res := f.call(t, "GetTodaysDate", "")
	assert.JSONEq(t, `{"date":"2025-03-14"}`, res.Content)

	res = f.call(t, "GetEventCategories", "{}")
	assert.JSONEq(t, `["museum","show"]`, res.Content)

	res = f.call(t, "Calculator", `{"expression":"3 * 250 + 100"}`)
	assert.JSONEq(t, `{"result":850}`, res.Content)

	res = f.call(t, "Calculator", `"7 / 2"`)
	assert.JSONEq(t, `{"result":3.5}`, res.Content)

	res = f.call(t, "Calculator", `{"expression":"1 / 0"}`)
	assert.True(t, res.IsError)

	res = f.call(t, "Calculator", `{"expression":"3 +"}`)
	assert.True(t, res.IsError)
}

func TestExecute_SendBookingConfirmation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	booking, err := f.store.BookEvent(context.Background(), models.BookingRequest{
		UserID: f.user.ID, EventID: f.museum.ID, VisitDate: "2025-03-14", VisitTime: "11:00", Quantity: 2,
	})
	require.NoError(t, err)

	f.sender.
		On("Send", mock.Anything, "+919812345670", mock.MatchedBy(func(body string) bool {
			return strings.HasPrefix(body, "Dear Asha Rao,") &&
				strings.Contains(body, "- Booking ID: "+booking.ID) &&
				strings.Contains(body, "- Total Price: Rs.500")
		})).
		Return(sms.Receipt{ProviderID: "SM1"}, nil).
		Once()

	args := fmt.Sprintf(`{"booking_id":%q,"phone_number":"+919812345670","include_details":true}`, booking.ID)
	res := f.call(t, "SendBookingConfirmation", args)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"success":true,"message":"Detailed confirmation SMS sent successfully","provider_id":"SM1"}`, res.Content)

	f.sender.
		On("Send", mock.Anything, "+10000000000", mock.Anything).
		Return(sms.Receipt{}, errors.New("provider down")).
		Once()

	args = fmt.Sprintf(`{"booking_id":%q,"phone_number":"+10000000000"}`, booking.ID)
	res = f.call(t, "SendBookingConfirmation", args)
	assert.False(t, res.IsError)
	assert.JSONEq(t, `{"success":false,"message":"Failed to send detailed confirmation SMS"}`, res.Content)

	res = f.call(t, "SendBookingConfirmation", `{"booking_id":"missing","phone_number":"+10000000000"}`)
	assert.JSONEq(t, `{"success":false,"message":"Failed to send detailed confirmation SMS"}`, res.Content)
}

type failingStore struct {
	tools.Store
}

func (failingStore) GetEvent(context.Context, string) (*models.Event, error) {
	return nil, errors.New("connection reset")
}

func TestExecute_InfrastructureErrorIsFatal(t *testing.T) {
	t.Parallel()

	reg := tools.New(failingStore{}, nil)

	_, err := reg.Execute(context.Background(), agent.ToolCall{ID: "c", Name: "GetEventDetails", Arguments: `{"event_id":"e"}`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}
