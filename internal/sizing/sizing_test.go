package sizing

import (
	"errors"
	"testing"
)

func TestBestSize(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		want   SizeSpec
	}{
		{name: "landscape 16:9", width: 1920, height: 1080, want: SizeSpec{1280, 720}},
		{name: "portrait 9:16", width: 1080, height: 1920, want: SizeSpec{720, 1280}},
		{name: "square", width: 100, height: 100, want: SizeSpec{1024, 1024}},
		{name: "4:3", width: 1600, height: 1200, want: SizeSpec{1152, 864}},
		{name: "3:4", width: 1200, height: 1600, want: SizeSpec{864, 1152}},
		{name: "3:2", width: 3000, height: 2000, want: SizeSpec{1248, 832}},
		{name: "2:3", width: 2000, height: 3000, want: SizeSpec{832, 1248}},
		{name: "ultrawide", width: 3440, height: 1440, want: SizeSpec{1512, 648}},
		{name: "very wide", width: 10000, height: 100, want: SizeSpec{1512, 648}},
		{name: "very tall", width: 100, height: 10000, want: SizeSpec{720, 1280}},
		{name: "1x1 pixel", width: 1, height: 1, want: SizeSpec{1024, 1024}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BestSize(tt.width, tt.height)
			if err != nil {
				t.Fatalf("BestSize(%d, %d) error = %v", tt.width, tt.height, err)
			}
			if got != tt.want {
				t.Errorf("BestSize(%d, %d) = %s, want %s", tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestBestSizeInvalidDimensions(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
	}{
		{"zero height", 100, 0},
		{"negative height", 100, -5},
		{"zero width", 0, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BestSize(tt.width, tt.height)
			if !errors.Is(err, ErrInvalidDimensions) {
				t.Errorf("BestSize(%d, %d) error = %v, want ErrInvalidDimensions", tt.width, tt.height, err)
			}
			if got != Default {
				t.Errorf("BestSize(%d, %d) = %s, want default %s", tt.width, tt.height, got, Default)
			}
		})
	}
}

func TestBestSizeAlwaysInTable(t *testing.T) {
	for w := 1; w <= 4000; w += 37 {
		for h := 1; h <= 4000; h += 53 {
			got, err := BestSize(w, h)
			if err != nil {
				t.Fatalf("BestSize(%d, %d) error = %v", w, h, err)
			}
			if !got.IsSupported() {
				t.Fatalf("BestSize(%d, %d) = %s, not in table", w, h, got)
			}
		}
	}
}

func TestSupportedOrder(t *testing.T) {
	want := []string{
		"1024x1024", "1152x864", "864x1152", "1280x720",
		"720x1280", "1248x832", "832x1248", "1512x648",
	}

	got := Supported()
	if len(got) != len(want) {
		t.Fatalf("Supported() returned %d sizes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].String() != want[i] {
			t.Errorf("Supported()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	// Mutating the copy must not affect the table.
	got[0] = SizeSpec{1, 1}
	if Supported()[0] != Default {
		t.Error("Supported() should return a copy")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    SizeSpec
		wantErr bool
	}{
		{input: "1280x720", want: SizeSpec{1280, 720}},
		{input: " 720X1280 ", want: SizeSpec{720, 1280}},
		{input: "640x480", want: SizeSpec{640, 480}},
		{input: "1280", wantErr: true},
		{input: "axb", wantErr: true},
		{input: "0x720", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		input  string
		want   SizeSpec
		wantOK bool
	}{
		{input: "1512x648", want: SizeSpec{1512, 648}, wantOK: true},
		{input: "640x480", want: Default, wantOK: false},
		{input: "garbage", want: Default, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := Coerce(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Coerce(%q) = (%s, %v), want (%s, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
