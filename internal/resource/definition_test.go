package resource

import (
	"testing"

	"github.com/hitoshi/adminconsole/internal/validation"
)

var testPNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func validCertificate() Submission {
	return Submission{
		Values: map[string]string{"name": "ISO 9001", "date": "2024-05-01"},
		Files: map[string]*validation.Upload{
			"image": {Filename: "iso.png", ContentType: "image/png", Data: testPNG},
		},
	}
}

func TestValidate_CreateValid(t *testing.T) {
	errs := Certificates().Validate(ModalCreate, validCertificate(), 0)
	if !errs.Empty() {
		t.Errorf("errors = %v, want none", errs)
	}
}

func TestValidate_RequiredFields(t *testing.T) {
	errs := Certificates().Validate(ModalCreate, Submission{Values: map[string]string{"name": "  "}}, 0)

	want := map[string]string{
		"name":  "Name is required",
		"date":  "Date is required",
		"image": "Image is required",
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Errorf("errs[%q] = %q, want %q", field, errs[field], msg)
		}
	}
}

func TestValidate_InvalidDate(t *testing.T) {
	sub := validCertificate()
	sub.Values["date"] = "01/05/2024"

	errs := Certificates().Validate(ModalCreate, sub, 0)
	if errs["date"] != "Invalid date" {
		t.Errorf("errs[date] = %q", errs["date"])
	}
}

func TestValidate_NonImageUpload(t *testing.T) {
	sub := validCertificate()
	sub.Files["image"] = &validation.Upload{Filename: "cv.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4")}

	errs := Certificates().Validate(ModalCreate, sub, 0)
	if errs["image"] != "Only image files are allowed" {
		t.Errorf("errs[image] = %q", errs["image"])
	}
}

func TestValidate_EditImageOptional(t *testing.T) {
	sub := validCertificate()
	sub.Files = nil

	errs := Certificates().Validate(ModalEdit, sub, 0)
	if !errs.Empty() {
		t.Errorf("edit without new image should be valid, got %v", errs)
	}
}

func TestValidate_DeleteHasNoFields(t *testing.T) {
	if errs := Testimonials().Validate(ModalDelete, Submission{}, 0); !errs.Empty() {
		t.Errorf("delete errors = %v", errs)
	}
}

func TestValidate_Testimonial(t *testing.T) {
	errs := Testimonials().Validate(ModalEdit, Submission{Values: map[string]string{"name": "Ana"}}, 0)
	if errs["position"] != "Position is required" || errs["message"] != "Message is required" {
		t.Errorf("errors = %v", errs)
	}
	if errs.Has("image") {
		t.Error("image is optional on edit")
	}
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()

	all := r.All()
	if len(all) != 2 || all[0].Name != "certificates" || all[1].Name != "testimonials" {
		t.Fatalf("All = %v", all)
	}
	if d, ok := r.Get("testimonials"); !ok || d.APIPath != "/api/testimonials" {
		t.Errorf("Get(testimonials) = %+v, %v", d, ok)
	}
	if _, ok := r.Get("users"); ok {
		t.Error("unknown resource should not be found")
	}

	dup := NewRegistry(Certificates(), &Definition{Name: "certificates", Title: "Other"})
	if len(dup.All()) != 1 {
		t.Error("duplicate names should be ignored")
	}
	if d, _ := dup.Get("certificates"); d.Title != "Certificates" {
		t.Error("first definition should win")
	}
}

func TestDefinition_Op(t *testing.T) {
	if got := Certificates().Op("create"); got != "certificates.create" {
		t.Errorf("Op = %q", got)
	}
}
