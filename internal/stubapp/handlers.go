package stubapp

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

func (a *App) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "login", http.StatusOK, view{Title: "Login"})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	v := view{Title: "Login", Email: email}
	switch {
	case email == "":
		v.Message = "Email is required"
	case !strings.Contains(email, "@"):
		v.Message = "Please enter a valid email address"
	case password == "":
		v.Message = "Password is required"
	}
	if v.Message != "" {
		a.render(w, r, "login", http.StatusUnprocessableEntity, v)
		return
	}
	token, ok := a.store.authenticate(email, password)
	if !ok {
		v.Message = "Invalid email or password"
		a.render(w, r, "login", http.StatusUnauthorized, v)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
	http.Redirect(w, r, "/patient", http.StatusSeeOther)
}

func (a *App) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "register", http.StatusOK, view{Title: "Sign Up", Form: User{}})
}

func (a *App) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u := User{
		FirstName: strings.TrimSpace(r.PostForm.Get("firstName")),
		LastName:  strings.TrimSpace(r.PostForm.Get("lastName")),
		Email:     strings.TrimSpace(r.PostForm.Get("email")),
		Password:  r.PostForm.Get("password"),
	}
	v := view{Title: "Sign Up", Form: u}
	switch {
	case u.FirstName == "" || u.Email == "" || u.Password == "":
		v.Message = "First name, email and password are required"
	case !strings.Contains(u.Email, "@"):
		v.Message = "Please enter a valid email address"
	default:
		if err := a.store.addUser(u); err != nil {
			v.Message = err.Error()
		}
	}
	if v.Message != "" {
		a.render(w, r, "register", http.StatusUnprocessableEntity, v)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		a.store.logout(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r)
	q := r.URL.Query()
	query := q.Get("q")
	field := q.Get("specialization")
	v := view{Title: "Patient Dashboard", Query: query, Return: r.URL.RequestURI()}
	for _, s := range specializations() {
		v.Specializations = append(v.Specializations, option{Name: s, Selected: s == field})
	}
	for _, d := range a.store.searchDoctors(query, field) {
		v.Doctors = append(v.Doctors, doctorCard{Doctor: d, Favorite: a.store.isFavorite(strings.ToLower(u.Email), d.ID)})
	}
	a.render(w, r, "dashboard", http.StatusOK, v)
}

func (a *App) handleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt(r, "doctorID")
	if _, found := a.store.doctor(id); !ok || !found {
		http.NotFound(w, r)
		return
	}
	a.store.toggleFavorite(strings.ToLower(currentUser(r).Email), id)
	target := r.FormValue("return")
	if !strings.HasPrefix(target, "/patient") {
		target = "/patient"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func bookingForm(values url.Values) BookingForm {
	return BookingForm{
		PatientName:   values.Get("patientName"),
		NIC:           values.Get("nic"),
		Email:         values.Get("email"),
		Contact:       values.Get("contact"),
		AccountName:   values.Get("accountName"),
		AccountNumber: values.Get("accountNumber"),
		BankName:      values.Get("bankName"),
		BankBranch:    values.Get("bankBranch"),
	}
}

func (a *App) bookingView(d Doctor, date, slot string, form BookingForm) view {
	v := view{Title: "Booking", Doctor: d, Date: date, Time: slot, Form: form}
	for _, day := range availableDates(a.now(), 5) {
		value := day.Format(time.DateOnly)
		v.Dates = append(v.Dates, option{Value: value, Label: day.Format("Mon 02 Jan"), Selected: value == date})
	}
	for _, s := range timeSlots {
		label := s
		if t, err := time.Parse("15:04", s); err == nil {
			label = t.Format("03:04 PM")
		}
		v.Slots = append(v.Slots, option{Value: s, Label: label, Selected: s == slot})
	}
	return v
}

func (a *App) handleBookingPage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt(r, "doctorID")
	d, found := a.store.doctor(id)
	if !ok || !found {
		http.NotFound(w, r)
		return
	}
	q := r.URL.Query()
	date := lastValue(q, "date")
	if date == "" {
		date = q.Get("selectedDate")
	}
	slot := lastValue(q, "time")
	if slot == "" {
		slot = q.Get("selectedTime")
	}
	a.render(w, r, "booking", http.StatusOK, a.bookingView(d, date, slot, bookingForm(q)))
}

func (a *App) handleConfirmBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt(r, "doctorID")
	d, found := a.store.doctor(id)
	if !ok || !found {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	date := r.PostForm.Get("selectedDate")
	slot := r.PostForm.Get("selectedTime")
	form := bookingForm(r.PostForm)
	v := a.bookingView(d, date, slot, form)
	switch {
	case date == "" || slot == "":
		v.Message = "Please select a date and a time slot"
	case strings.TrimSpace(form.PatientName) == "":
		v.Message = "Patient name is required"
	}
	if v.Message != "" {
		a.render(w, r, "booking", http.StatusUnprocessableEntity, v)
		return
	}
	appt := a.store.book(strings.ToLower(currentUser(r).Email), Appointment{
		Doctor:      d,
		Date:        date,
		Time:        slot,
		PatientName: form.PatientName,
	})
	a.render(w, r, "booked", http.StatusOK, view{Title: "Booking Confirmed", Appointment: appt})
}

func (a *App) handleAppointments(w http.ResponseWriter, r *http.Request) {
	appts := a.store.upcoming(strings.ToLower(currentUser(r).Email))
	a.render(w, r, "appointments", http.StatusOK, view{Title: "Appointment History", Appointments: appts})
}

func (a *App) appointmentFromURL(r *http.Request) (Appointment, bool) {
	id, ok := urlParamInt(r, "appointmentID")
	if !ok {
		return Appointment{}, false
	}
	return a.store.appointment(strings.ToLower(currentUser(r).Email), id)
}

func (a *App) handleAppointment(w http.ResponseWriter, r *http.Request) {
	appt, ok := a.appointmentFromURL(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a.render(w, r, "appointment", http.StatusOK, view{Title: "Appointment Details", Appointment: appt})
}

func (a *App) handleCancel(w http.ResponseWriter, r *http.Request) {
	appt, ok := a.appointmentFromURL(r)
	if !ok || !appt.Scheduled() {
		http.NotFound(w, r)
		return
	}
	a.render(w, r, "cancel", http.StatusOK, view{Title: "Cancel Appointment", Appointment: appt})
}

func (a *App) handleConfirmCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt(r, "appointmentID")
	if !ok {
		http.NotFound(w, r)
		return
	}
	appt, ok := a.store.cancel(strings.ToLower(currentUser(r).Email), id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	a.render(w, r, "cancel", http.StatusOK, view{Title: "Appointment Cancelled", Appointment: appt, Done: true})
}

func (a *App) handleProfile(w http.ResponseWriter, r *http.Request) {
	a.render(w, r, "profile", http.StatusOK, view{Title: "User Profile", Editing: r.URL.Query().Get("edit") != ""})
}

func (a *App) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u := currentUser(r)
	firstName := strings.TrimSpace(r.PostForm.Get("firstName"))
	lastName := strings.TrimSpace(r.PostForm.Get("lastName"))
	phone := strings.NewReplacer(" ", "", "-", "").Replace(r.PostForm.Get("phone"))
	v := view{Title: "User Profile", Editing: true}
	switch {
	case firstName == "":
		v.Problem = "Invalid first name, it cannot be empty"
	case phone != "" && !phonePattern.MatchString(phone):
		v.Problem = "Invalid phone format"
	}
	if v.Problem != "" {
		a.render(w, r, "profile", http.StatusUnprocessableEntity, v)
		return
	}
	err := a.store.updateUser(u.Email, func(stored *User) error {
		stored.FirstName = firstName
		stored.LastName = lastName
		stored.Phone = phone
		*u = *stored
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	a.render(w, r, "profile", http.StatusOK, view{Title: "User Profile", Message: "Profile Updated successfully"})
}

func (a *App) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	u := currentUser(r)
	current := r.PostForm.Get("oldPassword")
	next := r.PostForm.Get("newPassword")
	confirm := r.PostForm.Get("confirmPassword")
	v := view{Title: "User Profile"}
	err := a.store.updateUser(u.Email, func(stored *User) error {
		switch {
		case stored.Password != current:
			v.Problem = "Invalid current password"
		case next != confirm:
			v.Problem = "Invalid confirmation, the passwords do not match"
		case len(next) < 8:
			v.Problem = "Invalid new password, use at least 8 characters"
		default:
			stored.Password = next
		}
		return nil
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if v.Problem != "" {
		a.render(w, r, "profile", http.StatusUnprocessableEntity, v)
		return
	}
	v.Message = "Password Changed successfully"
	a.render(w, r, "profile", http.StatusOK, v)
}
