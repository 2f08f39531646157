package algorithm

import "testing"

func TestRegistryFindFirstMatch(t *testing.T) {
	var r Registry
	r.Add(NewRSA(1024, 0, 65537))
	r.Add(NewRSA(2048, 0, 65537))
	r.Add(NewRSA(2048, 1, 3)) // duplicate key length, should never be the one Find returns

	tests := []struct {
		name      string
		id        ID
		keyLength int
		wantFound bool
		wantExp   uint64
	}{
		{"1024 found", RSA, 1024, true, 65537},
		{"2048 returns first registered", RSA, 2048, true, 65537},
		{"EC not registered", EC, 2048, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := r.Find(tt.id, tt.keyLength)
			if ok != tt.wantFound {
				t.Fatalf("Find() ok = %v, want %v", ok, tt.wantFound)
			}
			if ok && info.RSAExponent != tt.wantExp {
				t.Errorf("RSAExponent = %d, want %d", info.RSAExponent, tt.wantExp)
			}
		})
	}

	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}

func TestRegistryAllIsACopy(t *testing.T) {
	var r Registry
	r.Add(NewRSA(1024, 0, 3))

	all := r.All()
	all[0].KeyLength = 9999

	info, _ := r.Find(RSA, 1024)
	if info.KeyLength != 1024 {
		t.Errorf("mutating All()'s result affected the registry: KeyLength = %d", info.KeyLength)
	}
}
