package service

import (
	"strings"
	"testing"
	"time"
)

func TestFormatBillNumber(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		template string
		seq      int64
		want     string
		wantErr  string
	}{
		{
			name:     "default template",
			template: "DB-{YY}{MM}-{SEQ5}",
			seq:      42,
			want:     "DB-2603-00042",
		},
		{
			name:     "full date tokens",
			template: "{YYYY}/{MM}/{DD}-{SEQ}",
			seq:      7,
			want:     "2026/03/10-7",
		},
		{
			name:     "padded sequence wider than value",
			template: "INV{SEQ8}",
			seq:      123,
			want:     "INV00000123",
		},
		{
			name:     "sequence wider than pad",
			template: "{SEQ3}",
			seq:      123456,
			want:     "123456",
		},
		{
			name:     "unresolved token",
			template: "DB-{BRANCH}-{SEQ5}",
			seq:      1,
			wantErr:  "unresolved token",
		},
		{
			name:     "empty template",
			template: "",
			seq:      1,
			wantErr:  "template is empty",
		},
		{
			name:     "non-positive sequence",
			template: "{SEQ5}",
			seq:      0,
			wantErr:  "invalid bill sequence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := FormatBillNumber(tt.template, issuedAt, tt.seq)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
