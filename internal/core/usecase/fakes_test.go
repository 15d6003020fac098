package usecase

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kirillkom/document-extraction/internal/core/domain"
	"github.com/kirillkom/document-extraction/internal/core/ports"
)

type patchCall struct {
	ownerID    string
	documentID string
	patch      domain.ExtractionPatch
}

type assignCall struct {
	ownerID    string
	documentID string
	jobID      string
	startedAt  time.Time
}

type storeFake struct {
	docs map[string]*domain.Document

	patches []patchCall
	assigns []assignCall
	created []*domain.Document

	getErr    error
	updateErr error
	assignErr error
	createErr error
}

func newStoreFake(docs ...*domain.Document) *storeFake {
	f := &storeFake{docs: map[string]*domain.Document{}}
	for _, doc := range docs {
		f.docs[doc.OwnerID+"/"+doc.DocumentID] = doc
	}
	return f
}

func (f *storeFake) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, doc)
	f.docs[doc.OwnerID+"/"+doc.DocumentID] = doc
	return nil
}

func (f *storeFake) Get(_ context.Context, ownerID, documentID string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[ownerID+"/"+documentID]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", fmt.Errorf("no record for %s/%s", ownerID, documentID))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *storeFake) FindByJobID(_ context.Context, jobID string) (*domain.Document, error) {
	for _, doc := range f.docs {
		if doc.CorrelationKey == jobID {
			copyDoc := *doc
			return &copyDoc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document", fmt.Errorf("no record for job %s", jobID))
}

func (f *storeFake) UpdateExtraction(_ context.Context, ownerID, documentID string, patch domain.ExtractionPatch) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.patches = append(f.patches, patchCall{ownerID: ownerID, documentID: documentID, patch: patch})
	return nil
}

func (f *storeFake) AssignJob(_ context.Context, ownerID, documentID, jobID string, startedAt time.Time) error {
	if f.assignErr != nil {
		return f.assignErr
	}
	f.assigns = append(f.assigns, assignCall{ownerID: ownerID, documentID: documentID, jobID: jobID, startedAt: startedAt})
	if doc, ok := f.docs[ownerID+"/"+documentID]; ok {
		doc.CorrelationKey = jobID
	}
	return nil
}

type objectStoreFake struct {
	data        []byte
	contentType string

	savedKeys []string
	fetchKeys []string

	saveErr  error
	fetchErr error
}

func (f *objectStoreFake) Save(_ context.Context, key string, _ io.Reader) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedKeys = append(f.savedKeys, key)
	return nil
}

func (f *objectStoreFake) Fetch(_ context.Context, key string) ([]byte, string, error) {
	if f.fetchErr != nil {
		return nil, "", f.fetchErr
	}
	f.fetchKeys = append(f.fetchKeys, key)
	return f.data, f.contentType, nil
}

func (f *objectStoreFake) Exists(_ context.Context, _ string) (bool, error) {
	return f.fetchErr == nil, nil
}

type inferenceFake struct {
	extraction    domain.ImageExtraction
	reconstructed string

	extractErr     error
	reconstructErr error

	lastImage    ports.InlineImage
	lastFileName string
	lastRawText  string
}

func (f *inferenceFake) ExtractImageContent(_ context.Context, image ports.InlineImage) (domain.ImageExtraction, error) {
	f.lastImage = image
	if f.extractErr != nil {
		return domain.ImageExtraction{}, f.extractErr
	}
	return f.extraction, nil
}

func (f *inferenceFake) ReconstructText(_ context.Context, fileName, rawText string) (string, error) {
	f.lastFileName = fileName
	f.lastRawText = rawText
	if f.reconstructErr != nil {
		return "", f.reconstructErr
	}
	return f.reconstructed, nil
}

type ocrFake struct {
	jobID string
	pages []ports.OCRPage

	submitErr error
	fetchErr  error

	submittedKeys     []string
	submittedSubjects []string
	fetchTokens       []string
}

func (f *ocrFake) SubmitJob(_ context.Context, sourceKey, notifySubject string) (string, error) {
	if f.submitErr != nil {
		return "", f.submitErr
	}
	f.submittedKeys = append(f.submittedKeys, sourceKey)
	f.submittedSubjects = append(f.submittedSubjects, notifySubject)
	return f.jobID, nil
}

func (f *ocrFake) FetchPage(_ context.Context, _ string, token string) (ports.OCRPage, error) {
	if f.fetchErr != nil {
		return ports.OCRPage{}, f.fetchErr
	}
	f.fetchTokens = append(f.fetchTokens, token)
	idx := len(f.fetchTokens) - 1
	if idx >= len(f.pages) {
		return ports.OCRPage{}, nil
	}
	return f.pages[idx], nil
}

type queueFake struct {
	published  []domain.NewDocumentTrigger
	publishErr error
}

func (f *queueFake) PublishDocumentCreated(_ context.Context, trigger domain.NewDocumentTrigger) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, trigger)
	return nil
}

func (f *queueFake) SubscribeTriggers(_ context.Context, _ func(context.Context, domain.TriggerRecord) error) error {
	return nil
}
