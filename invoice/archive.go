package invoice

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/models"
)

// ErrArchiveDisabled is returned when no upload target is configured
var ErrArchiveDisabled = errors.New("invoice archive is not configured")

// Uploader stores a finished document and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
}

// CloudinaryUploader uploads documents as raw Cloudinary assets
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader creates an uploader from a cloudinary:// url
func NewCloudinaryUploader(url, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, err
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

// Upload stores r under name in the configured folder
func (u *CloudinaryUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     name,
		Folder:       u.folder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	return resp.SecureURL, nil
}

// Archiver renders an invoice, uploads it and records it on the patient as a bill
type Archiver struct {
	Renderer *Renderer
	Uploader Uploader
}

// NewArchiver creates an Archiver; a nil uploader disables archiving
func NewArchiver(r *Renderer, u Uploader) *Archiver {
	return &Archiver{Renderer: r, Uploader: u}
}

// Enabled reports whether an upload target is configured
func (a *Archiver) Enabled() bool {
	return a != nil && a.Uploader != nil
}

// Archive stores the invoice for invoiceNo and returns the bill pushed onto the patient
func (a *Archiver) Archive(ctx context.Context, patientID int64, invoiceNo string) (*models.Bill, error) {
	if !a.Enabled() {
		return nil, ErrArchiveDisabled
	}
	inv, err := a.Renderer.Prepare(ctx, patientID, Selector{InvoiceNo: invoiceNo})
	if err != nil {
		return nil, err
	}
	doc, err := inv.Bytes()
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", invoiceNo, err)
	}

	url, err := a.Uploader.Upload(ctx, fmt.Sprintf("invoice_%d_%s", patientID, safeName(invoiceNo)), bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("upload invoice %s: %w", invoiceNo, err)
	}

	bill := models.Bill{
		BillID:        invoiceNo,
		Date:          a.Renderer.now(),
		Treatments:    inv.Patient.Treatments,
		TotalEstimate: models.Amount(inv.TotalEstimate),
		TotalPaid:     models.Amount(inv.TotalPaid),
		PdfURL:        url,
	}
	_, err = a.Renderer.Patients.UpdateOne(ctx,
		bson.M{"patientId": patientID},
		bson.M{
			"$push": bson.M{"bills": bill},
			"$set":  bson.M{"updatedAt": time.Now()},
		})
	if err != nil {
		return nil, models.NewStoreError("push bill", err)
	}

	zap.S().Infow("archived invoice",
		"patientId", patientID,
		"invoiceNo", invoiceNo,
		"bytes", len(doc),
		"url", url)
	return &bill, nil
}
