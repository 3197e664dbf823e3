package client

import (
	"context"
	"errors"
	"fmt"
)

// ImportRecord mirrors one parsed device row.
type ImportRecord struct {
	VendorID string `json:"vendorId"`
	Date     string `json:"date"`
	CheckIn  string `json:"checkIn,omitempty"`
	CheckOut string `json:"checkOut,omitempty"`
}

// ImportResult is the commit outcome, rendered verbatim to the user.
type ImportResult struct {
	Imported    int           `json:"imported"`
	Skipped     int           `json:"skipped"`
	Overwritten int           `json:"overwritten"`
	Errors      []ImportError `json:"errors"`
}

type ImportError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

const (
	DuplicateSkip      = "skip"
	DuplicateOverwrite = "overwrite"
)

// WizardState is the sum type over the four wizard screens. Exactly one
// concrete state is active at a time; transitions happen only through the
// wizard's methods.
type WizardState interface {
	wizardState()
}

// StateUpload is step 1: waiting for file content. After a failed parse the
// wizard returns here with the content retained and Err describing why.
type StateUpload struct {
	Content string
	Err     error
}

// StateMapping is step 2: every distinct vendor ID must be mapped to an
// employee before the wizard moves on.
type StateMapping struct {
	Content   string
	Records   []ImportRecord
	VendorIDs []string
	Mappings  map[string]string
}

// StatePolicy is step 3: one duplicate policy applies to the whole batch.
// After a failed commit the wizard returns here with the mapping retained.
type StatePolicy struct {
	Content   string
	Records   []ImportRecord
	VendorIDs []string
	Mappings  map[string]string
	Policy    string
	Err       error
}

// StateResult is the terminal step.
type StateResult struct {
	Result ImportResult
}

func (StateUpload) wizardState()  {}
func (StateMapping) wizardState() {}
func (StatePolicy) wizardState()  {}
func (StateResult) wizardState()  {}

// ImportWizard drives the biometric-device attendance import flow.
type ImportWizard struct {
	client *Client
	state  WizardState
}

func NewImportWizard(client *Client) *ImportWizard {
	return &ImportWizard{client: client, state: StateUpload{}}
}

func (w *ImportWizard) State() WizardState {
	return w.state
}

// Parse uploads the file content for server-side parsing. On failure the
// wizard stays on the upload step with the content kept so the user can
// retry or swap the file.
func (w *ImportWizard) Parse(ctx context.Context, content string) error {
	var resp struct {
		Records   []ImportRecord `json:"records"`
		VendorIDs []string       `json:"vendorIds"`
	}
	err := w.client.Post(ctx, "/api/attendance/device-import/parse",
		map[string]string{"content": content}, &resp)
	if err != nil {
		w.state = StateUpload{Content: content, Err: err}
		return err
	}
	w.state = StateMapping{
		Content:   content,
		Records:   resp.Records,
		VendorIDs: resp.VendorIDs,
		Mappings:  map[string]string{},
	}
	return nil
}

// Map assigns an employee to a vendor ID. Only valid on the mapping step.
func (w *ImportWizard) Map(vendorID, employeeID string) error {
	mapping, ok := w.state.(StateMapping)
	if !ok {
		return errors.New("not on the mapping step")
	}
	if mapping.Mappings == nil {
		mapping.Mappings = map[string]string{}
	}
	if employeeID == "" {
		delete(mapping.Mappings, vendorID)
	} else {
		mapping.Mappings[vendorID] = employeeID
	}
	w.state = mapping
	return nil
}

// ConfirmMapping advances to the policy step once every distinct vendor ID
// has a mapping.
func (w *ImportWizard) ConfirmMapping() error {
	mapping, ok := w.state.(StateMapping)
	if !ok {
		return errors.New("not on the mapping step")
	}
	unmapped := 0
	for _, vendorID := range mapping.VendorIDs {
		if mapping.Mappings[vendorID] == "" {
			unmapped++
		}
	}
	if unmapped > 0 {
		return fmt.Errorf("%d vendor ids are not mapped", unmapped)
	}
	w.state = StatePolicy{
		Content:   mapping.Content,
		Records:   mapping.Records,
		VendorIDs: mapping.VendorIDs,
		Mappings:  mapping.Mappings,
		Policy:    DuplicateSkip,
	}
	return nil
}

// SetPolicy picks the batch-wide duplicate policy.
func (w *ImportWizard) SetPolicy(policy string) error {
	step, ok := w.state.(StatePolicy)
	if !ok {
		return errors.New("not on the policy step")
	}
	if policy != DuplicateSkip && policy != DuplicateOverwrite {
		return fmt.Errorf("unknown duplicate policy %q", policy)
	}
	step.Policy = policy
	w.state = step
	return nil
}

// Commit sends the mapped batch. On failure the wizard stays on the policy
// step with the mapping retained; on success it reaches the terminal result.
func (w *ImportWizard) Commit(ctx context.Context) error {
	step, ok := w.state.(StatePolicy)
	if !ok {
		return errors.New("not on the policy step")
	}

	payload := map[string]interface{}{
		"records":         step.Records,
		"mappings":        step.Mappings,
		"duplicateAction": step.Policy,
	}
	var result ImportResult
	err := w.client.Post(ctx, "/api/attendance/device-import/commit", payload, &result)
	if err != nil {
		step.Err = err
		w.state = step
		return err
	}
	w.state = StateResult{Result: result}
	return nil
}

// Reset returns the wizard to a blank upload step.
func (w *ImportWizard) Reset() {
	w.state = StateUpload{}
}
