package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// simulate drives concurrent reception terminals against a running
// api-server and verifies the queue invariants hold: every booking into
// one partition gets a distinct queue number, the sequence is
// contiguous from 1, and concurrent call-next never hands the same
// patient to two terminals.

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

type client struct {
	base  string
	token string
	http  *http.Client
}

func main() {
	var (
		baseURL  = flag.String("base-url", "http://localhost:8080", "api-server base URL")
		username = flag.String("username", "admin", "login username")
		password = flag.String("password", "changeme", "login password")
		workers  = flag.Int("workers", 16, "concurrent terminals")
		bookings = flag.Int("bookings", 40, "bookings into one partition")
		date     = flag.String("date", time.Now().Format("2006-01-02"), "visit date")
	)
	flag.Parse()

	c := &client{base: *baseURL, http: &http.Client{Timeout: 10 * time.Second}}

	if err := c.login(*username, *password); err != nil {
		logger.Fatal().Err(err).Msg("login failed")
	}

	clinicID, departmentID, shiftID, err := c.pickPartition()
	if err != nil {
		logger.Fatal().Err(err).Msg("could not pick a clinic/shift")
	}
	doctorID, err := c.pickDoctor(departmentID)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not pick a doctor")
	}
	patients, err := c.pickPatients(*bookings)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not list patients")
	}

	logger.Info().
		Str("clinic", clinicID).Str("shift", shiftID).Str("date", *date).
		Int("workers", *workers).Int("bookings", *bookings).
		Msg("starting booking storm")

	appointments, queueNumbers := c.bookingStorm(*workers, patients, departmentID, clinicID, doctorID, shiftID, *date)

	sort.Ints(queueNumbers)
	dupes := 0
	gaps := 0
	for i, n := range queueNumbers {
		if i > 0 && queueNumbers[i-1] == n {
			dupes++
		}
		if n != i+1 {
			gaps++
		}
	}
	logger.Info().
		Int("booked", len(queueNumbers)).
		Int("duplicates", dupes).
		Int("out_of_sequence", gaps).
		Msg("booking storm done")
	if dupes > 0 {
		logger.Fatal().Msg("INVARIANT VIOLATED: duplicate queue numbers issued")
	}

	for _, id := range appointments {
		if err := c.post("/appointments/"+id+"/check-in", nil, nil); err != nil {
			logger.Fatal().Err(err).Str("appointment", id).Msg("check-in failed")
		}
	}

	called := c.callNextStorm(*workers, clinicID, shiftID, *date)
	seen := map[string]int{}
	for _, id := range called {
		seen[id]++
	}
	doubleCalled := 0
	for _, n := range seen {
		if n > 1 {
			doubleCalled++
		}
	}
	logger.Info().Int("called", len(called)).Int("double_called", doubleCalled).Msg("call-next storm done")
	if doubleCalled > 0 {
		logger.Fatal().Msg("INVARIANT VIOLATED: the same patient was called twice")
	}

	logger.Info().Msg("simulation passed")
}

func (c *client) bookingStorm(workers int, patients []string, departmentID, clinicID, doctorID, shiftID, date string) ([]string, []int) {
	jobs := make(chan string)
	var mu sync.Mutex
	var appointments []string
	var queueNumbers []int

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for patientID := range jobs {
				var resp struct {
					ID          string `json:"id"`
					QueueNumber int    `json:"queue_number"`
				}
				body := map[string]string{
					"patient_id":    patientID,
					"department_id": departmentID,
					"clinic_id":     clinicID,
					"doctor_id":     doctorID,
					"shift_id":      shiftID,
					"visit_date":    date,
				}
				// the server answers 409 queue_busy under contention; retry
				var err error
				for attempt := 0; attempt < 20; attempt++ {
					err = c.post("/appointments", body, &resp)
					if err == nil {
						break
					}
					time.Sleep(time.Duration(10*(attempt+1)) * time.Millisecond)
				}
				if err != nil {
					logger.Error().Err(err).Msg("booking failed after retries")
					continue
				}
				mu.Lock()
				appointments = append(appointments, resp.ID)
				queueNumbers = append(queueNumbers, resp.QueueNumber)
				mu.Unlock()
			}
		}()
	}

	for _, p := range patients {
		jobs <- p
	}
	close(jobs)
	wg.Wait()
	return appointments, queueNumbers
}

func (c *client) callNextStorm(workers int, clinicID, shiftID, date string) []string {
	var mu sync.Mutex
	var called []string

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				var resp struct {
					ID string `json:"id"`
				}
				err := c.post("/queue/call-next", map[string]string{
					"clinic_id":  clinicID,
					"shift_id":   shiftID,
					"visit_date": date,
				}, &resp)
				if err != nil {
					if apiErr, ok := err.(*apiError); ok && apiErr.Code == "queue_busy" {
						time.Sleep(20 * time.Millisecond)
						continue
					}
					return // queue_empty ends the storm
				}
				mu.Lock()
				called = append(called, resp.ID)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return called
}

func (c *client) login(username, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.post("/auth/login", map[string]string{"username": username, "password": password}, &resp); err != nil {
		return err
	}
	c.token = resp.Token
	return nil
}

func (c *client) pickPartition() (clinicID, departmentID, shiftID string, err error) {
	var clinics []struct {
		ID           string `json:"id"`
		DepartmentID string `json:"department_id"`
		IsActive     bool   `json:"is_active"`
	}
	if err := c.get("/clinics", &clinics); err != nil {
		return "", "", "", err
	}
	for _, cl := range clinics {
		if !cl.IsActive {
			continue
		}
		var shifts []struct {
			ID       string `json:"id"`
			IsActive bool   `json:"is_active"`
		}
		if err := c.get("/shifts?clinic_id="+cl.ID, &shifts); err != nil {
			return "", "", "", err
		}
		for _, sh := range shifts {
			if sh.IsActive {
				return cl.ID, cl.DepartmentID, sh.ID, nil
			}
		}
	}
	return "", "", "", fmt.Errorf("no active clinic with an active shift found")
}

func (c *client) pickDoctor(departmentID string) (string, error) {
	var doctors []struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := c.get("/doctors?department_id="+departmentID, &doctors); err != nil {
		return "", err
	}
	for _, d := range doctors {
		if d.Status == "ACTIVE" {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("no active doctor in department %s", departmentID)
}

func (c *client) pickPatients(n int) ([]string, error) {
	var patients []struct {
		ID string `json:"id"`
	}
	if err := c.get("/patients", &patients); err != nil {
		return nil, err
	}
	if len(patients) < n {
		return nil, fmt.Errorf("need %d patients, server has %d (run the seeder)", n, len(patients))
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = patients[i].ID
	}
	return out, nil
}

type apiError struct {
	Status  int
	Code    string
	Details string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Details)
}

func (c *client) post(path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var body struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return &apiError{Status: resp.StatusCode, Code: body.Error, Details: body.Details}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
