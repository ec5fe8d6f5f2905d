package adminapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/waynex/admin/internal/client"
	"github.com/waynex/admin/internal/session"
	"github.com/waynex/admin/internal/swr"
)

// fakeAPI is a small in-memory rendition of the admin API.
type fakeAPI struct {
	mu       sync.Mutex
	codes    []BalanceCode
	nextID   int
	requests []string // "METHOD uri"
	emails   []string // X-User-Email of each request
}

func (a *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests = append(a.requests, r.Method+" "+r.URL.RequestURI())
	a.emails = append(a.emails, r.Header.Get(client.HeaderUserEmail))

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == LoginPath && r.Method == http.MethodPost:
		var req loginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Invalid email or password"}`))
			return
		}
		w.Write([]byte(`{"user":{"email":"` + req.Email + `","firstName":"Asha","lastName":"Rao","isAdmin":true}}`))

	case r.URL.Path == EmployeesPath && r.Method == http.MethodPost:
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Email already exists"}`))

	case r.URL.Path == BalanceCodesPath && r.Method == http.MethodGet:
		codes := []BalanceCode{}
		for _, c := range a.codes {
			switch r.URL.Query().Get("status") {
			case "active":
				if c.IsRedeemed {
					continue
				}
			case "redeemed":
				if !c.IsRedeemed {
					continue
				}
			}
			codes = append(codes, c)
		}
		json.NewEncoder(w).Encode(codes)

	case r.URL.Path == BalanceCodesPath && r.Method == http.MethodPost:
		var req newBalanceCode
		json.NewDecoder(r.Body).Decode(&req)
		a.nextID++
		c := BalanceCode{ID: a.nextID, Code: "WX-" + strconv.Itoa(a.nextID), Amount: req.Amount, CreatedAt: time.Now().UTC().Format(time.RFC3339)}
		a.codes = append(a.codes, c)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(c)

	case strings.HasPrefix(r.URL.Path, BalanceCodesPath+"/") && r.Method == http.MethodDelete:
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, BalanceCodesPath+"/"))
		for i, c := range a.codes {
			if c.ID == id {
				a.codes = append(a.codes[:i], a.codes[i+1:]...)
				w.Write([]byte(`{"message":"Balance code deleted"}`))
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Balance code not found"}`))

	case r.URL.Path == PaymentsPath && r.Method == http.MethodGet:
		w.Write([]byte(`[{"id":7,"order_id":"WX1007","amount":1500,"utr":"UTR77","status":"Pending"}]`))

	case strings.HasPrefix(r.URL.Path, PaymentsPath+"/") && r.Method == http.MethodPut:
		w.WriteHeader(http.StatusInternalServerError)

	default:
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}
}

func (a *fakeAPI) requestLog() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

func (a *fakeAPI) lastEmail() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.emails) == 0 {
		return ""
	}
	return a.emails[len(a.emails)-1]
}

func (a *fakeAPI) count(prefix string) int {
	n := 0
	for _, r := range a.requestLog() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

type fixture struct {
	api     *fakeAPI
	store   *session.Store
	fetcher *swr.Fetcher
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	api := &fakeAPI{}
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	store := session.NewStore(session.NewMemorySlot())
	c := client.New(client.Config{BaseURL: ts.URL, Timeout: 5 * time.Second, Session: store})
	f := swr.New(c, swr.Options{})
	t.Cleanup(f.WaitIdle)

	return &fixture{api: api, store: store, fetcher: f, svc: NewService(c, f, store)}
}

func settle(t *testing.T, f *swr.Fetcher, key string) swr.State {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	st, err := f.Wait(ctx, key)
	if err != nil {
		t.Fatalf("key %s did not settle: %v", key, err)
	}
	return st
}

func TestLogin_SetsSession(t *testing.T) {
	fx := newFixture(t)

	sess, err := fx.svc.Login(context.Background(), " asha@waynex.com ", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.Email != "asha@waynex.com" || !sess.IsAdmin {
		t.Errorf("unexpected session %+v", sess)
	}
	got := fx.store.Get()
	if got == nil || got.FirstName != "Asha" {
		t.Fatalf("store not updated: %+v", got)
	}

	// Subsequent requests carry the email.
	fx.fetcher.Fetch(context.Background(), BalanceCodesKey(CodesAll))
	if last := fx.api.lastEmail(); last != "asha@waynex.com" {
		t.Errorf("expected X-User-Email after login, got %q", last)
	}
}

func TestLogin_FailureLeavesSession(t *testing.T) {
	fx := newFixture(t)
	prev := session.Session{Email: "old@waynex.com", FirstName: "Old", IsAdmin: true}
	if err := fx.store.Set(prev); err != nil {
		t.Fatal(err)
	}

	_, err := fx.svc.Login(context.Background(), "asha@waynex.com", "wrong")
	if err == nil || err.Error() != "Invalid email or password" {
		t.Fatalf("expected server message, got %v", err)
	}
	if got := fx.store.Get(); got == nil || *got != prev {
		t.Errorf("session changed after failed login: %+v", got)
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.svc.Login(context.Background(), "", "secret"); err != ErrMissingCredentials {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if n := len(fx.api.requestLog()); n != 0 {
		t.Errorf("expected no request, got %d", n)
	}
}

func TestLogout(t *testing.T) {
	fx := newFixture(t)
	fx.store.Set(session.Session{Email: "asha@waynex.com"})

	if err := fx.svc.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if fx.store.Get() != nil {
		t.Error("expected no session after logout")
	}
}

func TestDeleteBalanceCode_RowDisappears(t *testing.T) {
	fx := newFixture(t)
	fx.api.codes = []BalanceCode{
		{ID: 41, Code: "WX-41", Amount: 100},
		{ID: 42, Code: "WX-42", Amount: 500},
	}

	key := BalanceCodesKey(CodesAll)
	h := fx.fetcher.Use(context.Background(), key)
	defer h.Close()
	st := settle(t, fx.fetcher, key)
	codes, err := swr.Decode[[]BalanceCode](st)
	if err != nil || len(codes) != 2 {
		t.Fatalf("expected 2 codes, got %v (%v)", codes, err)
	}

	if err := fx.svc.DeleteBalanceCode(context.Background(), 42); err != nil {
		t.Fatalf("DeleteBalanceCode: %v", err)
	}

	if fx.api.count("DELETE /admin/balance-codes/42") != 1 {
		t.Errorf("expected DELETE /admin/balance-codes/42, got %v", fx.api.requestLog())
	}

	st = settle(t, fx.fetcher, key)
	codes, _ = swr.Decode[[]BalanceCode](st)
	for _, c := range codes {
		if c.ID == 42 {
			t.Fatal("code 42 still listed after revalidation")
		}
	}
	if len(codes) != 1 {
		t.Errorf("expected 1 code, got %d", len(codes))
	}
}

func TestCreateBalanceCode_RevalidatesFilteredLists(t *testing.T) {
	fx := newFixture(t)

	all := BalanceCodesKey(CodesAll)
	active := BalanceCodesKey(CodesActive)
	fx.fetcher.Fetch(context.Background(), all)
	fx.fetcher.Fetch(context.Background(), active)

	code, err := fx.svc.CreateBalanceCode(context.Background(), 250)
	if err != nil {
		t.Fatalf("CreateBalanceCode: %v", err)
	}
	if code == nil || code.Amount != 250 {
		t.Fatalf("unexpected code %+v", code)
	}

	for _, key := range []string{all, active} {
		codes, _ := swr.Decode[[]BalanceCode](settle(t, fx.fetcher, key))
		if len(codes) != 1 {
			t.Errorf("%s: expected 1 code after create, got %d", key, len(codes))
		}
	}
}

func TestCreateBalanceCode_InvalidAmount(t *testing.T) {
	fx := newFixture(t)
	for _, amount := range []float64{0, -5} {
		if _, err := fx.svc.CreateBalanceCode(context.Background(), amount); err != ErrInvalidAmount {
			t.Errorf("amount %v: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
	if n := len(fx.api.requestLog()); n != 0 {
		t.Errorf("expected no request, got %d", n)
	}
}

func TestEmptyBalanceCodeList(t *testing.T) {
	fx := newFixture(t)
	st := fx.fetcher.Fetch(context.Background(), BalanceCodesKey(CodesRedeemed))
	if st.Err != nil {
		t.Fatalf("unexpected error: %v", st.Err)
	}
	codes, err := swr.Decode[[]BalanceCode](st)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if codes == nil || len(codes) != 0 {
		t.Errorf("expected empty list, got %v", codes)
	}
}

func TestCreateEmployee_ServerMessage(t *testing.T) {
	fx := newFixture(t)
	fx.fetcher.Fetch(context.Background(), EmployeesKey(ListParams{}))
	before := fx.api.count("GET " + EmployeesPath)

	err := fx.svc.CreateEmployee(context.Background(), NewEmployee{
		FirstName: "Ravi", LastName: "K", Email: "ravi@waynex.com", Password: "pw",
	})
	if err == nil || err.Error() != "Email already exists" {
		t.Fatalf("expected 'Email already exists', got %v", err)
	}
	fx.fetcher.WaitIdle()
	if after := fx.api.count("GET " + EmployeesPath); after != before {
		t.Errorf("failed mutation revalidated the employee list (%d -> %d)", before, after)
	}
}

func TestCreateEmployee_AllFieldsRequired(t *testing.T) {
	fx := newFixture(t)
	err := fx.svc.CreateEmployee(context.Background(), NewEmployee{FirstName: "Ravi", Email: "ravi@waynex.com", Password: "pw"})
	if err != ErrMissingFields {
		t.Errorf("expected ErrMissingFields, got %v", err)
	}
}

func TestFailedMutation_LeavesSessionAndCache(t *testing.T) {
	fx := newFixture(t)
	sess := session.Session{Email: "asha@waynex.com", FirstName: "Asha", IsAdmin: true}
	fx.store.Set(sess)

	key := PaymentsKey()
	before := fx.fetcher.Fetch(context.Background(), key)
	if !before.HasData() {
		t.Fatalf("expected payments, got %+v", before)
	}

	err := fx.svc.SetPaymentStatus(context.Background(), 7, PaymentApproved)
	ae, ok := client.AsAPIError(err)
	if !ok || ae.Message != client.MutationFailedMessage || ae.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected generic APIError, got %v", err)
	}

	fx.fetcher.WaitIdle()
	if got := fx.store.Get(); got == nil || *got != sess {
		t.Errorf("session changed: %+v", got)
	}
	after := fx.fetcher.State(key)
	if string(after.Data) != string(before.Data) || after.UpdatedAt != before.UpdatedAt {
		t.Error("cache changed after failed mutation")
	}
	if fx.api.count("GET "+PaymentsPath) != 1 {
		t.Errorf("expected no revalidation, got %v", fx.api.requestLog())
	}
}

func TestSetPaymentStatus_InvalidStatus(t *testing.T) {
	fx := newFixture(t)
	if err := fx.svc.SetPaymentStatus(context.Background(), 1, PaymentPending); err != ErrInvalidStatus {
		t.Errorf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestUploadInternationalRates(t *testing.T) {
	var gotPercent, gotFlat, gotFile string
	var hasFlat bool
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		gotPercent = r.FormValue("percent")
		_, hasFlat = r.MultipartForm.Value["flat"]
		gotFlat = r.FormValue("flat")
		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		gotFile = string(data)
		w.Write([]byte(`{"message":"Rates uploaded","total_destinations":120,"total_services":4,"active_services":3}`))
	}))
	defer ts.Close()

	store := session.NewStore(session.NewMemorySlot())
	c := client.New(client.Config{BaseURL: ts.URL, Session: store})
	svc := NewService(c, swr.New(c, swr.Options{}), store)

	res, err := svc.UploadInternationalRates(context.Background(), RateUpload{
		Filename: "rates.xlsx",
		Content:  strings.NewReader("sheet"),
		Percent:  "12.5",
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if res.TotalDestinations != 120 || res.ActiveServices != 3 {
		t.Errorf("unexpected result %+v", res)
	}
	if gotPercent != "12.5" || hasFlat || gotFlat != "" {
		t.Errorf("unexpected markups percent=%q flat=%q (sent=%v)", gotPercent, gotFlat, hasFlat)
	}
	if gotFile != "sheet" {
		t.Errorf("unexpected file content %q", gotFile)
	}
}

func TestUploadInternationalRates_MissingFile(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.svc.UploadInternationalRates(context.Background(), RateUpload{}); err != ErrMissingFile {
		t.Errorf("expected ErrMissingFile, got %v", err)
	}
}
