package embedding

import "testing"

func TestContentText(t *testing.T) {
	t.Parallel()

	title := "Ode to Joy"
	artist := "Beethoven"
	album := "Symphony No. 9"

	tests := []struct {
		name                  string
		title, artist, album *string
		want                  string
	}{
		{"all fields", &title, &artist, &album, "Title: Ode to Joy | Artist: Beethoven | Album: Symphony No. 9"},
		{"title only", &title, nil, nil, "Title: Ode to Joy"},
		{"artist and album", nil, &artist, &album, "Artist: Beethoven | Album: Symphony No. 9"},
		{"all nil", nil, nil, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ContentText(tt.title, tt.artist, tt.album)
			if got != tt.want {
				t.Errorf("ContentText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestContentText_EmptyStringsTreatedAsAbsent(t *testing.T) {
	t.Parallel()
	empty := ""
	title := "X"
	got := ContentText(&title, &empty, nil)
	if got != "Title: X" {
		t.Errorf("ContentText() = %q, want 'Title: X' (empty artist dropped)", got)
	}
}
