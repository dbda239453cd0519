package stubapp

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type User struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type Doctor struct {
	ID             int
	Name           string
	Specialization string
	Hospital       string
}

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "Scheduled"
	StatusCancelled AppointmentStatus = "Cancelled"
)

type Appointment struct {
	ID          int
	Doctor      Doctor
	Date        string
	Time        string
	PatientName string
	Status      AppointmentStatus
}

func (a Appointment) Scheduled() bool {
	return a.Status == StatusScheduled
}

// BookingForm holds the fields of the booking page.
type BookingForm struct {
	PatientName   string
	NIC           string
	Email         string
	Contact       string
	AccountName   string
	AccountNumber string
	BankName      string
	BankBranch    string
}

var doctors = []Doctor{
	{1, "Dr. Sarah Smith", "Cardiology", "City General Hospital"},
	{2, "Dr. John Perera", "Dermatology", "Lakeside Clinic"},
	{3, "Dr. Anil Fernando", "Neurology", "City General Hospital"},
	{4, "Dr. Emily Silva", "Pediatrics", "Sunrise Medical Center"},
	{5, "Dr. Michael Brown", "Cardiology", "Lakeside Clinic"},
}

// store is the in-memory state of the application. All methods are safe
// for concurrent use.
type store struct {
	mu           sync.Mutex
	users        map[string]*User
	sessions     map[string]string
	favorites    map[string]map[int]bool
	appointments map[string][]*Appointment
	nextID       int
}

func newStore() *store {
	return &store{
		users:        map[string]*User{},
		sessions:     map[string]string{},
		favorites:    map[string]map[int]bool{},
		appointments: map[string][]*Appointment{},
		nextID:       1,
	}
}

func (s *store) addUser(u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, found := s.users[key]; found {
		return fmt.Errorf("an account for %s already exists", u.Email)
	}
	s.users[key] = &u
	return nil
}

// authenticate returns a new session token for the credentials.
func (s *store) authenticate(email, password string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[strings.ToLower(email)]
	if !found || u.Password != password {
		return "", false
	}
	token := uuid.NewString()
	s.sessions[token] = strings.ToLower(email)
	return token, true
}

func (s *store) logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// user returns a copy of the user signed in with token.
func (s *store) user(token string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, found := s.sessions[token]
	if !found {
		return User{}, false
	}
	u, found := s.users[email]
	if !found {
		return User{}, false
	}
	return *u, true
}

func (s *store) updateUser(email string, fn func(u *User) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, found := s.users[strings.ToLower(email)]
	if !found {
		return fmt.Errorf("unknown user %s", email)
	}
	return fn(u)
}

func (s *store) doctor(id int) (Doctor, bool) {
	for _, d := range doctors {
		if d.ID == id {
			return d, true
		}
	}
	return Doctor{}, false
}

// searchDoctors returns the doctors whose name or specialization contains
// query and whose specialization equals specialization, if set.
func (s *store) searchDoctors(query, specialization string) []Doctor {
	query = strings.ToLower(strings.TrimSpace(query))
	var res []Doctor
	for _, d := range doctors {
		if specialization != "" && d.Specialization != specialization {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(d.Name), query) && !strings.Contains(strings.ToLower(d.Specialization), query) {
			continue
		}
		res = append(res, d)
	}
	return res
}

func specializations() []string {
	var res []string
	for _, d := range doctors {
		if !slices.Contains(res, d.Specialization) {
			res = append(res, d.Specialization)
		}
	}
	return res
}

func (s *store) toggleFavorite(email string, doctorID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	favs, found := s.favorites[email]
	if !found {
		favs = map[int]bool{}
		s.favorites[email] = favs
	}
	favs[doctorID] = !favs[doctorID]
}

func (s *store) isFavorite(email string, doctorID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favorites[email][doctorID]
}

func (s *store) book(email string, a Appointment) Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextID
	a.Status = StatusScheduled
	s.nextID++
	s.appointments[email] = append(s.appointments[email], &a)
	return a
}

// upcoming returns the scheduled appointments of a user.
func (s *store) upcoming(email string) []Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []Appointment
	for _, a := range s.appointments[email] {
		if a.Status == StatusScheduled {
			res = append(res, *a)
		}
	}
	return res
}

func (s *store) appointment(email string, id int) (Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments[email] {
		if a.ID == id {
			return *a, true
		}
	}
	return Appointment{}, false
}

func (s *store) cancel(email string, id int) (Appointment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments[email] {
		if a.ID == id && a.Status == StatusScheduled {
			a.Status = StatusCancelled
			return *a, true
		}
	}
	return Appointment{}, false
}

// availableDates returns the bookable dates following now.
func availableDates(now time.Time, n int) []time.Time {
	dates := make([]time.Time, 0, n)
	for d := 1; len(dates) < n; d++ {
		day := now.AddDate(0, 0, d)
		if day.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, day)
	}
	return dates
}

var timeSlots = []string{"09:00", "10:30", "13:00", "14:30", "16:00"}
