// Package wizard implements the onboarding wizard controller: a state
// machine over the six form steps that drives validation, session
// persistence, remote synchronization, and the final KYC handoff.
package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/investify/onboard/internal/client"
	"github.com/investify/onboard/internal/kyc"
	"github.com/investify/onboard/internal/models"
	"github.com/investify/onboard/internal/session"
	"github.com/investify/onboard/internal/steps"
)

// API is the slice of the remote client the controller needs.
type API interface {
	SaveStep(ctx context.Context, submissionID string, p client.StepPayload) client.Envelope[models.Submission]
	SubmitApplication(ctx context.Context, submissionID string) client.Envelope[models.Submission]
	AutoSave(ctx context.Context, submissionID string, step int, data models.FormData) client.Envelope[models.Submission]
	UploadFile(ctx context.Context, name, contentType string, r io.Reader) client.Envelope[client.UploadResult]
}

// Timer names owned by the scheduler.
const (
	timerAutoSave = "autosave"
	timerMirror   = "mirror"
	timerNavReset = "navreset"
)

// Default timer delays. Fields on Controller so tests can shrink them.
const (
	defaultAutoSaveDelay = 2 * time.Second
	defaultMirrorDelay   = 500 * time.Millisecond
	defaultNavResetDelay = 300 * time.Millisecond
)

// Controller is the wizard state machine. All exported methods are safe
// for concurrent use; step-transition saves run synchronously so a
// transition only completes after its API call settles.
type Controller struct {
	mu       sync.Mutex
	api      API
	store    session.Store
	notify   Notifier
	verifier kyc.Provider
	kycBase  string
	log      *zap.Logger
	sched    *Scheduler
	bg       context.Context

	autoSaveDelay time.Duration
	mirrorDelay   time.Duration
	navResetDelay time.Duration

	current        int
	submissionID   string
	status         models.SubmissionStatus
	data           models.FormData
	stepValid      bool
	navigatingBack bool
	completed      map[int]bool
	online         bool
	dirty          bool
	lastAutoSave   string
	lastSavedAt    time.Time
	kycSession     *kyc.Session
}

// Option configures a Controller.
type Option func(*Controller)

// WithNotifier routes toast messages to n.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) { c.notify = n }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Controller) { c.log = log }
}

// WithVerifier sets the KYC provider used on the confirmation step.
func WithVerifier(p kyc.Provider, baseURL string) Option {
	return func(c *Controller) {
		c.verifier = p
		c.kycBase = baseURL
	}
}

// WithBackground sets the context used by debounced background saves.
func WithBackground(ctx context.Context) Option {
	return func(c *Controller) { c.bg = ctx }
}

// New creates a controller at the welcome step. Call Restore to pick up
// a previous session from the store.
func New(api API, store session.Store, opts ...Option) *Controller {
	c := &Controller{
		api:           api,
		store:         store,
		log:           zap.NewNop(),
		sched:         NewScheduler(),
		bg:            context.Background(),
		autoSaveDelay: defaultAutoSaveDelay,
		mirrorDelay:   defaultMirrorDelay,
		navResetDelay: defaultNavResetDelay,
		current:       steps.Welcome,
		stepValid:     true, // welcome is always valid
		completed:     make(map[int]bool),
		online:        true,
		data:          models.FormData{Assets: []models.AssetTransaction{}},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.notify == nil {
		c.notify = LogNotifier{Log: c.log}
	}
	return c
}

// Restore loads a prior session from the store, if one exists. The
// store is read exactly once; afterwards the controller only writes.
func (c *Controller) Restore() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, okID := c.store.Get(session.KeySubmissionID)
	rawData, okData := c.store.Get(session.KeyFormData)
	if !okID || !okData || id == "" {
		return
	}
	data, err := models.RestoreFormData([]byte(rawData))
	if err != nil {
		c.log.Warn("discarding unreadable saved session", zap.Error(err))
		return
	}
	c.submissionID = id
	c.data = data

	if s, ok := c.store.Get(session.KeyCurrentStep); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && n >= 0 && n < steps.Count {
			c.current = n
			// Everything before the restored step counts as completed.
			for i := 0; i < n; i++ {
				c.completed[i] = true
			}
		}
	}
	if s, ok := c.store.Get(session.KeyCompletedSteps); ok {
		var idxs []int
		if err := json.Unmarshal([]byte(s), &idxs); err == nil {
			for _, i := range idxs {
				if i >= 0 && i < steps.Count {
					c.completed[i] = true
				}
			}
		}
	}
	c.refreshValidityLocked()
	c.log.Info("restored wizard session",
		zap.String("submission", c.submissionID),
		zap.Int("step", c.current))
}

// Advance moves forward one step. From welcome it moves without an API
// call; from any later step it persists the current section first and
// only advances on success. Returns whether the step changed.
func (c *Controller) Advance(ctx context.Context) bool {
	c.mu.Lock()
	c.navigatingBack = false
	c.sched.Cancel(timerNavReset)

	if c.current == steps.Welcome {
		c.current = steps.Personal
		c.refreshValidityLocked()
		c.persistLocked()
		c.mu.Unlock()
		return true
	}
	if c.current >= steps.Confirmation || !c.stepValid {
		c.mu.Unlock()
		return false
	}
	payload, ok := c.payloadLocked()
	id := c.submissionID
	c.mu.Unlock()
	if !ok {
		return false
	}

	env := c.api.SaveStep(ctx, id, payload)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !env.Success {
		c.reportFailureLocked(env.Message, env.Errors)
		return false
	}
	c.applySaveLocked(env.Data, true)
	c.completed[c.current] = true
	c.current++
	c.refreshValidityLocked()
	c.persistLocked()
	if c.current == steps.Confirmation {
		c.startVerificationLocked()
	}
	return true
}

// Retreat moves back one step. Steps 0 and 1 are the floor: retreating
// from them is a no-op. Valid current data is persisted quietly first;
// invalid data is left alone so half-typed fields never hit the API.
func (c *Controller) Retreat(ctx context.Context) bool {
	c.mu.Lock()
	if c.current <= steps.Personal {
		c.mu.Unlock()
		return false
	}
	c.navigatingBack = true

	var payload client.StepPayload
	doSave := false
	if c.stepValid && c.submissionID != "" {
		payload, doSave = c.payloadLocked()
	}
	id := c.submissionID
	c.mu.Unlock()

	if doSave {
		if env := c.api.SaveStep(ctx, id, payload); env.Success {
			c.mu.Lock()
			c.applySaveLocked(env.Data, false)
			c.mu.Unlock()
		} else {
			c.log.Warn("save before retreat failed", zap.String("reason", client.ErrorText(env)))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current--
	// Force valid so returning to a filled-in step doesn't flash errors.
	c.stepValid = true
	c.persistLocked()
	c.armNavResetLocked()
	return true
}

// JumpTo navigates directly to a previously reachable step. The welcome
// step is never a jump target, and jumping requires an existing
// submission.
func (c *Controller) JumpTo(ctx context.Context, target int) bool {
	if target == steps.Welcome || target >= steps.Count {
		return false
	}
	c.mu.Lock()
	if target > c.current || c.submissionID == "" {
		c.mu.Unlock()
		return false
	}
	goingBack := target < c.current
	c.navigatingBack = goingBack

	var payload client.StepPayload
	doSave := false
	if c.current > steps.Welcome && (!goingBack || c.stepValid) {
		payload, doSave = c.payloadLocked()
	}
	id := c.submissionID
	c.mu.Unlock()

	if doSave {
		if env := c.api.SaveStep(ctx, id, payload); env.Success {
			c.mu.Lock()
			c.applySaveLocked(env.Data, false)
			c.mu.Unlock()
		} else {
			c.log.Warn("save before jump failed", zap.String("reason", client.ErrorText(env)))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = target
	if goingBack {
		c.stepValid = true
	} else {
		c.refreshValidityLocked()
	}
	c.persistLocked()
	c.armNavResetLocked()
	return true
}

// ReportValidity feeds a step screen's own validation verdict into the
// controller. Two rules outrank the live verdict: a step reached by
// backward navigation is valid, and a completed step stays trusted
// until its data is edited.
func (c *Controller) ReportValidity(valid bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.navigatingBack || c.completed[c.current] {
		c.stepValid = true
		return
	}
	c.stepValid = valid
}

// UpdateData merges a mutation into the form data, re-validates, and
// arms the debounced store mirror and auto-save.
func (c *Controller) UpdateData(mutate func(*models.FormData)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	before, _ := c.data.Serialize()
	mutate(&c.data)
	after, _ := c.data.Serialize()
	if bytes.Equal(before, after) {
		return
	}
	c.dirty = true
	// Editing a completed step revokes its trust.
	delete(c.completed, c.current)
	c.refreshValidityLocked()

	c.sched.Schedule(timerMirror, c.mirrorDelay, c.mirrorData)
	c.sched.Schedule(timerAutoSave, c.autoSaveDelay, func() {
		c.AutoSaveNow(c.bg)
	})
}

// AutoSaveNow performs a background save immediately if the wizard is
// online, past the welcome step, and the snapshot changed since the
// last auto-save. Failures are logged, never surfaced.
func (c *Controller) AutoSaveNow(ctx context.Context) {
	c.mu.Lock()
	if !c.online || c.submissionID == "" || c.current < steps.Personal {
		c.mu.Unlock()
		return
	}
	snap, err := c.data.Serialize()
	if err != nil {
		c.mu.Unlock()
		return
	}
	if string(snap) == c.lastAutoSave {
		c.mu.Unlock()
		return
	}
	id, step, data := c.submissionID, c.current, c.data
	c.mu.Unlock()

	env := c.api.AutoSave(ctx, id, step, data)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !env.Success {
		c.log.Warn("auto-save failed", zap.String("reason", env.Message))
		return
	}
	c.lastAutoSave = string(snap)
	c.lastSavedAt = time.Now()
	// An edit may have landed while the request was in flight. Only the
	// exact snapshot that went over the wire counts as saved.
	if cur, err := c.data.Serialize(); err == nil && bytes.Equal(cur, snap) {
		c.dirty = false
	}
}

// SetOnline records a connectivity change. Going offline raises a
// standing warning; coming back online with unsaved changes triggers an
// immediate auto-save attempt.
func (c *Controller) SetOnline(online bool) {
	c.mu.Lock()
	was := c.online
	c.online = online
	dirty := c.dirty
	c.mu.Unlock()

	if !online {
		if was {
			c.notify.Warning("You are offline. Changes will be saved when the connection returns.")
		}
		return
	}
	if !was && dirty {
		go c.AutoSaveNow(c.bg)
	}
}

// Submit finalizes the application from the confirmation step. On
// success the session store is cleared and all pending timers die: the
// wizard is terminal.
func (c *Controller) Submit(ctx context.Context) bool {
	c.mu.Lock()
	if c.current != steps.Confirmation || c.submissionID == "" {
		c.mu.Unlock()
		return false
	}
	id := c.submissionID
	c.mu.Unlock()

	env := c.api.SubmitApplication(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !env.Success {
		c.reportFailureLocked(env.Message, env.Errors)
		return false
	}
	c.status = models.StatusSubmitted
	c.lastSavedAt = time.Now()
	c.sched.Stop()
	if err := c.store.Clear(); err != nil {
		c.log.Warn("clearing session store failed", zap.Error(err))
	}
	c.notify.Success("Application submitted successfully!")
	return true
}

// Reset abandons the session: persisted keys, in-memory state, and
// pending timers all go.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sched.Stop()
	if err := c.store.Clear(); err != nil {
		c.log.Warn("clearing session store failed", zap.Error(err))
	}
	c.current = steps.Welcome
	c.submissionID = ""
	c.status = ""
	c.data = models.FormData{Assets: []models.AssetTransaction{}}
	c.stepValid = true
	c.navigatingBack = false
	c.completed = make(map[int]bool)
	c.dirty = false
	c.lastAutoSave = ""
	c.kycSession = nil
}

// UploadProof uploads a proof document for the transaction with the
// given ID, tracking upload state on the transaction itself. The
// content type is derived from the file name.
func (c *Controller) UploadProof(ctx context.Context, txID, name string, r io.Reader) bool {
	c.setUploadState(txID, models.UploadInFlight, "")

	env := c.api.UploadFile(ctx, name, "", r)
	if !env.Success {
		c.setUploadState(txID, models.UploadFailed, env.Message)
		c.notify.Error(env.Message)
		return false
	}

	c.mu.Lock()
	for i := range c.data.Assets {
		if c.data.Assets[i].ID != txID {
			continue
		}
		c.data.Assets[i].Proofs = append(c.data.Assets[i].Proofs, models.ProofRef{
			Name: env.Data.Filename,
			URL:  env.Data.URL,
		})
		c.data.Assets[i].ProofFileName = env.Data.Filename
		c.data.Assets[i].ProofFile = nil
		c.data.Assets[i].UploadState = models.UploadSucceeded
		c.data.Assets[i].UploadError = ""
	}
	c.dirty = true
	c.sched.Schedule(timerMirror, c.mirrorDelay, c.mirrorData)
	c.mu.Unlock()
	return true
}

// RemoveProof drops an uploaded file reference from a transaction.
func (c *Controller) RemoveProof(txID, name string) {
	c.UpdateData(func(d *models.FormData) {
		for i := range d.Assets {
			if d.Assets[i].ID != txID {
				continue
			}
			kept := d.Assets[i].Proofs[:0]
			for _, p := range d.Assets[i].Proofs {
				if p.Name != name {
					kept = append(kept, p)
				}
			}
			d.Assets[i].Proofs = kept
			if d.Assets[i].ProofFileName == name {
				d.Assets[i].ProofFileName = ""
			}
		}
	})
}

// Close cancels every pending timer. The controller stays usable but
// quiet; meant for teardown paths that don't go through Submit.
func (c *Controller) Close() {
	c.sched.Stop()
}

// --- accessors ---

func (c *Controller) CurrentStep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) SubmissionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submissionID
}

func (c *Controller) Status() models.SubmissionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Controller) Data() models.FormData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data
}

func (c *Controller) StepValid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stepValid
}

func (c *Controller) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

func (c *Controller) LastSavedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSavedAt
}

// CompletedSteps returns the completed step indices in ascending order.
func (c *Controller) CompletedSteps() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completedSliceLocked()
}

// VerificationSession returns the KYC session, if one was initialized.
func (c *Controller) VerificationSession() *kyc.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.kycSession
}

// --- internals (callers hold c.mu unless noted) ---

// payloadLocked builds the save payload for the current step. Welcome
// and confirmation have no section payload.
func (c *Controller) payloadLocked() (client.StepPayload, bool) {
	switch c.current {
	case steps.Personal:
		return client.PersonalPayload{PersonalInfo: c.data.PersonalInfo}, true
	case steps.Address:
		return client.AddressPayload{AddressInfo: c.data.AddressInfo}, true
	case steps.Assets:
		return client.AssetPayload{Assets: c.data.Assets}, true
	case steps.Legal:
		return client.LegalPayload{LegalInfo: c.data.LegalInfo}, true
	default:
		return nil, false
	}
}

var stepSavedMessages = map[int]string{
	steps.Personal: "Personal information updated!",
	steps.Address:  "Address information updated!",
	steps.Assets:   "Asset information updated!",
	steps.Legal:    "Legal agreements updated!",
}

// applySaveLocked folds a successful save response into the state.
// interactive controls whether a success toast fires; pure navigation
// saves stay silent.
func (c *Controller) applySaveLocked(sub models.Submission, interactive bool) {
	created := c.submissionID == "" && sub.ID != ""
	if sub.ID != "" {
		c.submissionID = sub.ID
	}
	if sub.Status != "" {
		c.status = sub.Status
	}
	c.lastSavedAt = time.Now()
	if !interactive {
		return
	}
	if created {
		c.notify.Success("Application started successfully!")
		return
	}
	if msg, ok := stepSavedMessages[c.current]; ok {
		c.notify.Success(msg)
	}
}

func (c *Controller) reportFailureLocked(msg string, errs map[string][]string) {
	if msg == "" {
		msg = "An error occurred"
	}
	c.notify.Error(msg)
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		c.notify.Error(f + ": " + strings.Join(errs[f], ", "))
	}
}

// refreshValidityLocked recomputes the validity flag with the standing
// precedence: backward navigation and completed-step trust beat the
// live field check.
func (c *Controller) refreshValidityLocked() {
	if c.navigatingBack || c.completed[c.current] {
		c.stepValid = true
		return
	}
	c.stepValid = steps.Valid(c.current, c.data)
}

// persistLocked writes the navigation snapshot and the serialized form
// data. Before a submission exists there is nothing to resume, so
// nothing is written.
func (c *Controller) persistLocked() {
	if c.submissionID == "" {
		return
	}
	c.setKey(session.KeySubmissionID, c.submissionID)
	c.setKey(session.KeyCurrentStep, strconv.Itoa(c.current))
	if b, err := json.Marshal(c.completedSliceLocked()); err == nil {
		c.setKey(session.KeyCompletedSteps, string(b))
	}
	c.persistDataLocked()
}

func (c *Controller) persistDataLocked() {
	snap, err := c.data.Serialize()
	if err != nil {
		c.log.Warn("serializing form data failed", zap.Error(err))
		return
	}
	c.setKey(session.KeyFormData, string(snap))
}

func (c *Controller) setKey(key, value string) {
	if err := c.store.Set(key, value); err != nil {
		c.log.Warn("session store write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Controller) completedSliceLocked() []int {
	out := make([]int, 0, len(c.completed))
	for i := range c.completed {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (c *Controller) armNavResetLocked() {
	c.sched.Schedule(timerNavReset, c.navResetDelay, func() {
		c.mu.Lock()
		c.navigatingBack = false
		c.refreshValidityLocked()
		c.mu.Unlock()
	})
}

// mirrorData is the debounced store mirror target.
func (c *Controller) mirrorData() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.submissionID == "" {
		return
	}
	c.persistDataLocked()
}

func (c *Controller) startVerificationLocked() {
	if c.verifier == nil || c.submissionID == "" {
		return
	}
	cfg := kyc.DefaultConfig(c.kycBase, c.submissionID)
	go func() {
		sess, err := c.verifier.Initialize(c.bg, cfg)
		if err != nil {
			c.log.Warn("kyc initialization failed", zap.Error(err))
			return
		}
		c.mu.Lock()
		c.kycSession = sess
		c.mu.Unlock()
	}()
}

func (c *Controller) setUploadState(txID string, state models.UploadState, errMsg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.data.Assets {
		if c.data.Assets[i].ID == txID {
			c.data.Assets[i].UploadState = state
			c.data.Assets[i].UploadError = errMsg
		}
	}
}
