package llm

import "testing"

func TestExtractJSONObjectPlain(t *testing.T) {
	raw, err := ExtractJSONObject(`{"a": 1}`)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"a": 1}` {
		t.Errorf("got %s", raw)
	}
}

func TestExtractJSONObjectFenced(t *testing.T) {
	content := "```json\n{\"primary_agent\": \"charter_expert\"}\n```"
	raw, err := ExtractJSONObject(content)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"primary_agent": "charter_expert"}` {
		t.Errorf("got %s", raw)
	}
}

func TestExtractJSONObjectWithProse(t *testing.T) {
	content := "Berikut hasil analisis:\n{\"result\": \"ok\"}\nSemoga membantu."
	raw, err := ExtractJSONObject(content)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"result": "ok"}` {
		t.Errorf("got %s", raw)
	}
}

func TestExtractJSONObjectNoObject(t *testing.T) {
	if _, err := ExtractJSONObject("tidak ada JSON di sini"); err == nil {
		t.Error("expected error for content without JSON")
	}
}

func TestExtractJSONObjectInvalid(t *testing.T) {
	if _, err := ExtractJSONObject(`{"a": }`); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestUnmarshalResponse(t *testing.T) {
	var out struct {
		Primary string `json:"primary_agent"`
	}
	content := "```\n{\"primary_agent\": \"banking_expert\"}\n```"
	if err := UnmarshalResponse(content, &out); err != nil {
		t.Fatal(err)
	}
	if out.Primary != "banking_expert" {
		t.Errorf("got %q", out.Primary)
	}
}
