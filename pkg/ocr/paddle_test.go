package ocr

import (
	"encoding/json"
	"testing"
)

func TestLastJSONLineSkipsStrayPrints(t *testing.T) {
	raw := []byte("downloading model...\nWARNING something\n{\"success\": true, \"text\": \"hi\", \"confidence\": 91.2}\n")
	var p paddlePayload
	if err := json.Unmarshal(lastJSONLine(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !p.Success || p.Text != "hi" || p.Confidence != 91.2 {
		t.Fatalf("unexpected payload: %+v", p)
	}
}

func TestPaddlePayloadLines(t *testing.T) {
	raw := []byte(`{"success":true,"text":"a\nb","confidence":88.5,"device":"gpu","lines":[{"text":"a","confidence":90,"bbox":[[0,0],[10,0],[10,12],[0,12]]},{"text":"b","confidence":87,"bbox":[[0,20],[10,20],[10,32],[0,32]]}]}`)
	var p paddlePayload
	if err := json.Unmarshal(lastJSONLine(raw), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(p.Lines) != 2 || p.Device != "gpu" {
		t.Fatalf("unexpected payload: %+v", p)
	}
	if len(p.Lines[0].BBox) != 4 {
		t.Fatalf("expected 4-point bbox, got %v", p.Lines[0].BBox)
	}
}
