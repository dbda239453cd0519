// Package stubapp is an in-process rendition of the clinic web application
// the scenarios are written against. It renders plain server side html
// following the locator contract, so the scenario suite can run without a
// deployed frontend and with the JS-less driver.
package stubapp

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jakopako/flowcheck/internal/log"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "sid"

var phonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)

type ctxKey struct{}

// App serves the clinic application.
type App struct {
	store *store
	pages map[string]*template.Template
	now   func() time.Time
}

// view is the data of every rendered page.
type view struct {
	Title   string
	User    *User
	Message string
	Problem string

	Email string
	Form  any

	Query           string
	Specializations []option
	Doctors         []doctorCard
	Return          string

	Doctor      Doctor
	Dates       []option
	Slots       []option
	Date        string
	Time        string
	Appointment Appointment

	Appointments []Appointment
	Done         bool
	Editing      bool
}

type option struct {
	Name     string
	Value    string
	Label    string
	Selected bool
}

type doctorCard struct {
	Doctor
	Favorite bool
}

// New returns the application with account as its only user. The account
// starts with a few scheduled appointments.
func New(account User) (*App, error) {
	pages := map[string]*template.Template{}
	for _, name := range []string{"login", "register", "dashboard", "booking", "booked", "appointments", "appointment", "cancel", "profile"} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("error parsing template %s: %w", name, err)
		}
		pages[name] = t
	}
	a := &App{
		store: newStore(),
		pages: pages,
		now:   time.Now,
	}
	if err := a.store.addUser(account); err != nil {
		return nil, err
	}
	email := strings.ToLower(account.Email)
	dates := availableDates(a.now(), 3)
	for i, d := range dates {
		a.store.book(email, Appointment{
			Doctor:      doctors[i],
			Date:        d.Format(time.DateOnly),
			Time:        timeSlots[i],
			PatientName: strings.TrimSpace(account.FirstName + " " + account.LastName),
		})
	}
	return a, nil
}

// Handler returns the http handler of the application.
func (a *App) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	r.Get("/login", a.handleLoginPage)
	r.Post("/login", a.handleLogin)
	r.Get("/register", a.handleRegisterPage)
	r.Post("/register", a.handleRegister)
	r.Post("/logout", a.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(a.requireUser)
		r.Get("/patient", a.handleDashboard)
		r.Post("/patient/favorites/{doctorID}", a.handleFavorite)
		r.Get("/patient/appointments", a.handleAppointments)
		r.Get("/patient/appointments/{appointmentID}", a.handleAppointment)
		r.Post("/patient/appointments/{appointmentID}/cancel", a.handleCancel)
		r.Post("/patient/appointments/{appointmentID}/cancel/confirm", a.handleConfirmCancel)
		r.Get("/patient/profile", a.handleProfile)
		r.Post("/patient/profile", a.handleUpdateProfile)
		r.Post("/patient/profile/password", a.handleChangePassword)
		r.Get("/book/{doctorID}", a.handleBookingPage)
		r.Post("/book/{doctorID}/confirm", a.handleConfirmBooking)
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.LoggerFromContext(r.Context()).Debug("stub request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("took", time.Since(start)))
	})
}

func (a *App) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		u, ok := a.store.user(c.Value)
		if !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, &u)))
	})
}

func currentUser(r *http.Request) *User {
	u, _ := r.Context().Value(ctxKey{}).(*User)
	return u
}

func (a *App) render(w http.ResponseWriter, r *http.Request, name string, status int, v view) {
	if v.User == nil {
		v.User = currentUser(r)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := a.pages[name].ExecuteTemplate(w, "layout", v); err != nil {
		log.LoggerFromContext(r.Context()).Error("error rendering page", slog.String("page", name), slog.String("err", err.Error()))
	}
}

func urlParamInt(r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(chi.URLParam(r, key))
	return v, err == nil
}

// lastValue returns the last non-empty value of key. Buttons submitting a
// value are listed after the hidden fields carrying earlier choices.
func lastValue(values map[string][]string, key string) string {
	vals := values[key]
	for i := len(vals) - 1; i >= 0; i-- {
		if vals[i] != "" {
			return vals[i]
		}
	}
	return ""
}
