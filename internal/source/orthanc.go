package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"diana/internal/config"
	"diana/internal/dicomuid"
	"diana/internal/dixel"
	"diana/internal/services"
)

// TagProxyID is the tag key carrying the proxy's internal study identifier
// once metadata resolution has run. It rides in Tags so it survives MergeTags.
const TagProxyID = "ProxyStudyID"

// HTTPDoer describes the HTTP client used by the Orthanc gateway.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Orthanc talks to an Orthanc-style proxy over its REST API.
type Orthanc struct {
	baseURL  string
	aeTitle  string
	username string
	password string
	timeout  time.Duration
	client   HTTPDoer
}

// NewOrthanc constructs a gateway from configuration.
func NewOrthanc(cfg *config.Config) *Orthanc {
	timeout := time.Duration(cfg.Source.TimeoutSeconds) * time.Second
	return &Orthanc{
		baseURL:  cfg.Source.URL,
		aeTitle:  cfg.Source.AETitle,
		username: cfg.Source.Username,
		password: cfg.Source.Password,
		timeout:  timeout,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewOrthancWithClient constructs a gateway with an injected HTTP client.
func NewOrthancWithClient(baseURL, aeTitle string, client HTTPDoer) *Orthanc {
	return &Orthanc{baseURL: baseURL, aeTitle: aeTitle, client: client}
}

// Clone returns an independent session against the same endpoint.
func (o *Orthanc) Clone() Source {
	clone := *o
	if o.timeout > 0 {
		clone.client = &http.Client{Timeout: o.timeout}
	}
	return &clone
}

type findRequest struct {
	Level  string            `json:"Level"`
	Query  map[string]string `json:"Query"`
	Expand bool              `json:"Expand"`
}

type findAnswer struct {
	ID            string            `json:"ID"`
	MainDicomTags map[string]string `json:"MainDicomTags"`
}

// Find resolves study metadata via the proxy's find endpoint. With retrieve
// set, each match is also staged from the upstream modality.
func (o *Orthanc) Find(ctx context.Context, query map[string]string, retrieve bool) ([]map[string]string, error) {
	payload := findRequest{Level: "Study", Query: query, Expand: true}
	var answers []findAnswer
	if err := o.postJSON(ctx, "/tools/find", payload, &answers); err != nil {
		return nil, services.Wrap(nil, "orthanc", "find", "query failed", err)
	}

	results := make([]map[string]string, 0, len(answers))
	for _, answer := range answers {
		tags := make(map[string]string, len(answer.MainDicomTags)+1)
		for k, v := range answer.MainDicomTags {
			tags[k] = v
		}
		tags[TagProxyID] = answer.ID
		if retrieve {
			if err := o.stage(ctx, answer.ID); err != nil {
				return nil, services.Wrap(nil, "orthanc", "retrieve", "staging request failed", err)
			}
		}
		results = append(results, tags)
	}
	return results, nil
}

// stage asks the proxy to pull the study payload from its upstream modality.
func (o *Orthanc) stage(ctx context.Context, studyID string) error {
	body := map[string]any{"Resources": []string{studyID}, "TargetAet": o.aeTitle}
	return o.postJSON(ctx, "/modalities/"+o.aeTitle+"/move", body, nil)
}

// Exists reports whether the study payload is materialized at the proxy.
func (o *Orthanc) Exists(ctx context.Context, item *dixel.Dixel) (bool, error) {
	studyID := item.Tags[TagProxyID]
	if studyID == "" {
		return false, nil
	}
	resp, err := o.do(ctx, http.MethodGet, "/studies/"+studyID, nil, "")
	if err != nil {
		return false, services.Wrap(nil, "orthanc", "exists", "study probe failed", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= http.StatusMultipleChoices:
		return false, services.Wrap(nil, "orthanc", "exists", fmt.Sprintf("proxy returned %d", resp.StatusCode), nil)
	}
	return true, nil
}

type anonymizeResponse struct {
	ID string `json:"ID"`
}

// Anonymize runs server-side anonymization and returns the de-identified
// study. The sham identity is deterministic so repeated runs agree.
func (o *Orthanc) Anonymize(ctx context.Context, item *dixel.Dixel, remove bool) (*dixel.Dixel, error) {
	studyID := item.Tags[TagProxyID]
	if studyID == "" {
		return nil, services.Wrap(services.ErrValidation, "orthanc", "anonymize", "study not resolved", nil)
	}

	shamUID := dicomuid.Sham(item.Accession(), "study")
	body := map[string]any{
		"Replace": map[string]string{
			dixel.TagPatientName:      item.ShamID(),
			dixel.TagPatientID:        item.ShamID(),
			dixel.TagAccessionNumber:  item.ShamID(),
			dixel.TagStudyInstanceUID: shamUID,
		},
		"Keep":  []string{dixel.TagPatientSex, dixel.TagModality, dixel.TagStudyDescription},
		"Force": true,
	}
	var anon anonymizeResponse
	if err := o.postJSON(ctx, "/studies/"+studyID+"/anonymize", body, &anon); err != nil {
		return nil, services.Wrap(nil, "orthanc", "anonymize", "request failed", err)
	}

	out := &dixel.Dixel{
		Tags:   map[string]string{},
		Meta:   item.Meta,
		Report: item.Report,
	}
	for k, v := range item.Tags {
		out.Tags[k] = v
	}
	out.Tags[dixel.TagPatientName] = item.ShamID()
	out.Tags[dixel.TagPatientID] = item.ShamID()
	out.Tags[dixel.TagStudyInstanceUID] = shamUID
	out.Tags[TagProxyID] = anon.ID

	if remove {
		if err := o.deleteStudy(ctx, studyID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Get retrieves the study at the requested view. A missing payload maps to
// services.ErrNotFound so the handler can count it.
func (o *Orthanc) Get(ctx context.Context, item *dixel.Dixel, view dixel.View) (*dixel.Dixel, error) {
	studyID := item.Tags[TagProxyID]
	if studyID == "" {
		return nil, services.Wrap(services.ErrNotFound, "orthanc", "get", "study not resolved", nil)
	}

	if view == dixel.ViewTags {
		var answer findAnswer
		if err := o.getJSON(ctx, "/studies/"+studyID, &answer); err != nil {
			return nil, err
		}
		item.MergeTags(answer.MainDicomTags)
		return item, nil
	}

	resp, err := o.do(ctx, http.MethodGet, "/studies/"+studyID+"/archive", nil, "")
	if err != nil {
		return nil, services.Wrap(nil, "orthanc", "get", "archive request failed", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, services.Wrap(services.ErrNotFound, "orthanc", "get", "study payload missing", nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return nil, services.Wrap(nil, "orthanc", "get", fmt.Sprintf("proxy returned %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(nil, "orthanc", "get", "read payload", err)
	}
	item.File = data
	return item, nil
}

// Delete removes the study from the proxy to bound its storage.
func (o *Orthanc) Delete(ctx context.Context, item *dixel.Dixel) error {
	studyID := item.Tags[TagProxyID]
	if studyID == "" {
		return nil
	}
	return o.deleteStudy(ctx, studyID)
}

func (o *Orthanc) deleteStudy(ctx context.Context, studyID string) error {
	resp, err := o.do(ctx, http.MethodDelete, "/studies/"+studyID, nil, "")
	if err != nil {
		return services.Wrap(nil, "orthanc", "delete", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode != http.StatusNotFound {
		return services.Wrap(nil, "orthanc", "delete", fmt.Sprintf("proxy returned %d", resp.StatusCode), nil)
	}
	return nil
}

func (o *Orthanc) postJSON(ctx context.Context, path string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := o.do(ctx, http.MethodPost, path, bytes.NewReader(encoded), "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("proxy returned %d for %s", resp.StatusCode, path)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (o *Orthanc) getJSON(ctx context.Context, path string, out any) error {
	resp, err := o.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return services.Wrap(nil, "orthanc", "get", "request failed", err)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "orthanc", "get", "study missing", nil)
	case resp.StatusCode >= http.StatusMultipleChoices:
		return services.Wrap(nil, "orthanc", "get", fmt.Sprintf("proxy returned %d", resp.StatusCode), nil)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(nil, "orthanc", "get", "decode response", err)
	}
	return nil
}

func (o *Orthanc) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if o.username != "" {
		req.SetBasicAuth(o.username, o.password)
	}
	return o.client.Do(req)
}
