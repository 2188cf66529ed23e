// Package resvtest runs an in-process stand-in for the reservation
// site, faithful to the request flow the scraper drives: cookie
// login, the calendar XHR, and the chained reservation forms.
package resvtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

const sessionCookie = "resvtest_session"

// Slot renders as one timetable block. DetailID of zero renders a
// block without a booking link.
type Slot struct {
	Time      string
	Room      string
	Remaining int
	DetailID  int
}

// Site is a fake reservation site. Mutate the exported fields before
// driving a client at Server.URL; they are guarded by mu only because
// the http handlers read them concurrently.
type Site struct {
	Server *httptest.Server

	mu       sync.Mutex
	loginID  string
	password string
	// timetable HTML per "YYYY-MM-DD" day; missing days serve an
	// empty page
	timetables map[string]string
	// serve a final page without the completion marker
	failCompletion bool
	completions    int
}

func NewSite(loginID, password string) *Site {
	s := &Site{
		loginID:    loginID,
		password:   password,
		timetables: map[string]string{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/user/usr_login.php", s.handleLogin)
	mux.HandleFunc("/user/res_user.php", s.handleVerify)
	mux.HandleFunc("/user/usr_menu.php", s.handleOk)
	mux.HandleFunc("/reserve/calendar.php", s.handleOk)
	mux.HandleFunc("/reserve/get_timetable_pc.php", s.handleTimetable)
	mux.HandleFunc("/reserve/detail.php", s.handleDetail)
	mux.HandleFunc("/reserve/rsv_fix.php", s.handleFix)
	mux.HandleFunc("/reserve/rsv_confirm.php", s.handleConfirm)
	mux.HandleFunc("/reserve/rsv_done.php", s.handleDone)

	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Site) Close() {
	s.Server.Close()
}

// SetTimetable installs the day view served for the given
// "YYYY-MM-DD" day.
func (s *Site) SetTimetable(day string, slots []Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timetables[day] = TimetableHTML(slots)
}

// FailCompletion makes the final submission page omit the completion
// marker.
func (s *Site) FailCompletion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCompletion = true
}

// Completions reports how many reservations reached the final
// submission.
func (s *Site) Completions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completions
}

// TimetableHTML renders slots the way the site's day view does.
func TimetableHTML(slots []Slot) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, slot := range slots {
		b.WriteString(`<div class="time-line"><ul>`)
		if slot.DetailID != 0 {
			fmt.Fprintf(&b, `<li class="data-week-info"><a href="detail.php?id=%d">%s</a></li>`,
				slot.DetailID, slot.Time)
		} else {
			fmt.Fprintf(&b, `<li class="data-week-info">%s</li>`, slot.Time)
		}
		fmt.Fprintf(&b, `<li class="data-week-mp-name"><a>%s</a></li>`, slot.Room)
		fmt.Fprintf(&b, `<li><span class="zannsu">%d</span></li>`, slot.Remaining)
		b.WriteString(`</ul></div>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func (s *Site) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	return err == nil && cookie.Value == "ok"
}

func (s *Site) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	ok := r.PostFormValue("loginid") == s.loginID &&
		r.PostFormValue("loginpw") == s.password
	s.mu.Unlock()

	if ok {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "ok", Path: "/"})
	}
	// the real site answers 200 either way; only the verification
	// page reveals whether the session took
	fmt.Fprint(w, "<html><body>redirecting</body></html>")
}

func (s *Site) handleVerify(w http.ResponseWriter, r *http.Request) {
	if s.authenticated(r) {
		fmt.Fprint(w, "<html><body>My Reservations</body></html>")
		return
	}
	fmt.Fprint(w, `<html><body><form>Login ID <input name="loginid"></form></body></html>`)
}

func (s *Site) handleOk(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, "<html><body>ok</body></html>")
}

func (s *Site) handleTimetable(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(r) {
		http.Error(w, "not logged in", http.StatusForbidden)
		return
	}
	if r.Header.Get("X-Requested-With") != "XMLHttpRequest" {
		http.Error(w, "not an xhr request", http.StatusBadRequest)
		return
	}

	year, _ := strconv.Atoi(r.URL.Query().Get("cur_year"))
	month, _ := strconv.Atoi(r.URL.Query().Get("cur_month"))
	day, _ := strconv.Atoi(r.URL.Query().Get("cur_day"))
	key := fmt.Sprintf("%04d-%02d-%02d", year, month, day)

	s.mu.Lock()
	page, ok := s.timetables[key]
	s.mu.Unlock()
	if !ok {
		page = "<html><body></body></html>"
	}
	fmt.Fprint(w, page)
}

func (s *Site) handleDetail(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(r) {
		http.Error(w, "not logged in", http.StatusForbidden)
		return
	}
	id := r.URL.Query().Get("id")
	fmt.Fprintf(w, `<html><body><form action="rsv_fix.php" method="post">
		<input type="hidden" name="id" value="%s">
		<input type="submit" name="cancel" value="Cancel">
		<input type="submit" name="submit" value="Proceed to the next">
	</form></body></html>`, id)
}

func (s *Site) handleFix(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostFormValue("submit") != "Proceed to the next" {
		http.Error(w, "wrong submit value", http.StatusBadRequest)
		return
	}
	if r.PostFormValue("cancel") != "" {
		http.Error(w, "cancel button must not be replayed", http.StatusBadRequest)
		return
	}
	fmt.Fprintf(w, `<html><body><form action="rsv_confirm.php?id=%s" method="get">
		<input type="submit" name="next" value="next">
	</form></body></html>`, r.PostFormValue("id"))
}

func (s *Site) handleConfirm(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, `<html><body><form action="rsv_done.php" method="post">
		<input type="hidden" name="id" value="%s">
		<input type="submit" name="submit1" value="confirm">
	</form></body></html>`, r.URL.Query().Get("id"))
}

func (s *Site) handleDone(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if r.PostFormValue("submit1") != "complete" {
		http.Error(w, "missing completion submit", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	fail := s.failCompletion
	if !fail {
		s.completions++
	}
	s.mu.Unlock()

	if fail {
		fmt.Fprint(w, "<html><body>System Error</body></html>")
		return
	}
	fmt.Fprint(w, "<html><body>予約完了 / Reservation Complete</body></html>")
}
