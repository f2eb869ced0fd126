package logic

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kitchen Keypad: Button 1", "kitchen_keypad_button_1"},
		{"  Leading and trailing  ", "leading_and_trailing"},
		{"Master Bedroom Entry: Unknown Button 4", "master_bedroom_entry_unknown_button_4"},
		{"Café Pico: Öff", "cafe_pico_off"},
		{"A--B__C", "a_b_c"},
		{"Straße Ørsted", "strasse_orsted"},
		{"Кухня: Свет", "kukhnia_svet"},
		{"Kid's Room", "kids_room"},
		{"Σαλόνι", "saloni"},
		{"", "unknown"},
		{"!!!", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestReleaseCapable(t *testing.T) {
	tests := []struct {
		buttonType string
		want       bool
	}{
		{"SingleSceneRaiseLower", true},
		{"MasterRaiseLower", true},
		{"LowerRaise", false},
		{"Toggle", false},
		{"SingleAction", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ReleaseCapable(tt.buttonType); got != tt.want {
			t.Errorf("ReleaseCapable(%q) = %v, want %v", tt.buttonType, got, tt.want)
		}
	}
}

func TestButtonIdentity(t *testing.T) {
	b := Button{AreaName: "Living Room", KeypadName: "Entry Keypad", Name: "Scene 1", Number: 1}

	if got := b.DisplayName(); got != "Entry Keypad: Scene 1" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := b.ID(); got != "entry_keypad_scene_1" {
		t.Errorf("ID = %q", got)
	}
	if got := b.FullID(); got != "living_room_entry_keypad_scene_1" {
		t.Errorf("FullID = %q", got)
	}
}

func TestNonLatinButtonsKeepDistinctIDs(t *testing.T) {
	light := Button{AreaName: "Кухня", KeypadName: "Пульт", Name: "Свет", Number: 1}
	blinds := Button{AreaName: "Кухня", KeypadName: "Пульт", Name: "Шторы", Number: 2}

	if light.FullID() == blinds.FullID() {
		t.Fatalf("distinct buttons share full id %q", light.FullID())
	}
	if got := light.FullID(); got != "kukhnia_pult_svet" {
		t.Errorf("FullID = %q", got)
	}
	for _, id := range []string{light.ID(), light.FullID(), blinds.ID(), blinds.FullID()} {
		if id == "" || id == UnknownSlug {
			t.Errorf("id %q not transliterated", id)
		}
	}
}

func TestUnknownButtonGetsNumber(t *testing.T) {
	b := Button{AreaName: "Hall", KeypadName: "Pico", Name: UnknownButtonName, Number: 4}

	if got := b.DisplayName(); got != "Pico: Unknown Button 4" {
		t.Errorf("DisplayName = %q", got)
	}
	if got := b.FullID(); got != "hall_pico_unknown_button_4" {
		t.Errorf("FullID = %q", got)
	}
}

func TestRawEventString(t *testing.T) {
	if Press.String() != "PRESS" {
		t.Errorf("Press = %s", Press)
	}
	if Release.String() != "RELEASE" {
		t.Errorf("Release = %s", Release)
	}
	if RawEvent(7).String() != "UNKNOWN(7)" {
		t.Errorf("RawEvent(7) = %s", RawEvent(7))
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateIdle:              "IDLE",
		StateAwaitingLong:      "AWAITING_LONG",
		StateAwaitingSuperLong: "AWAITING_SUPER_LONG",
		State(42):              "UNKNOWN",
	} {
		if s.String() != want {
			t.Errorf("State(%d) = %s, want %s", int(s), s, want)
		}
	}
}
