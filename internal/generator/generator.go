package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/invalder/OpenDGAi/internal/pdpa"
)

// Column names emitted by the generator.
const (
	FieldRecordID     = "record_id"
	FieldFullName     = "full_name"
	FieldNationalID   = "national_id"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldAddress      = "address"
	FieldAmount       = "amount"
	FieldRegisteredAt = "registered_at"
	FieldNote         = "note"
)

// Stats counts what the generator planted, so a scan can be checked
// against it.
type Stats struct {
	Records       int `json:"records"`
	ValidIDs      int `json:"validIds"`
	InvalidIDs    int `json:"invalidIds"`
	Emails        int `json:"emails"`
	Phones        int `json:"phones"`
	Addresses     int `json:"addresses"`
	EmbeddedEmail int `json:"embeddedEmails"`
}

// Output contains the generated records and what they carry.
type Output struct {
	Records []pdpa.Record `json:"records"`
	Stats   Stats         `json:"stats"`
}

// Generator produces synthetic tabular records that contain Thai personal data.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	nameFragments nameFragments
	pools         attributePools
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumRecords <= 0 {
		cfg.NumRecords = def.NumRecords
	}
	if cfg.PIIChance <= 0 {
		cfg.PIIChance = def.PIIChance
	}
	if cfg.InvalidIDChance < 0 {
		cfg.InvalidIDChance = 0
	}
	if cfg.SharedChance < 0 {
		cfg.SharedChance = 0
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		nameFragments: defaultNameFragments(),
	}
}

// Generate synthesises records. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Output, error) {
	records := make([]pdpa.Record, g.cfg.NumRecords)
	stats := Stats{Records: g.cfg.NumRecords}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < g.cfg.NumRecords; i++ {
		if err := ctx.Err(); err != nil {
			return Output{}, err
		}

		first, last := g.randomName()
		rec := pdpa.Record{
			FieldRecordID:     fmt.Sprintf("REC-%06d", i+1),
			FieldFullName:     first + " " + last,
			FieldAmount:       float64(g.rand.Intn(500000)) / 100,
			FieldRegisteredAt: base.Add(time.Duration(g.rand.Intn(365*24)) * time.Hour).Format(time.RFC3339),
		}

		if g.chance(g.cfg.PIIChance) {
			if g.chance(g.cfg.InvalidIDChance) {
				rec[FieldNationalID] = g.invalidNationalID()
				stats.InvalidIDs++
			} else {
				rec[FieldNationalID] = g.validNationalID()
				stats.ValidIDs++
			}
		}
		if g.chance(g.cfg.PIIChance) {
			rec[FieldEmail] = g.maybeShared(&g.pools.emails, func() string { return g.randomEmail(first, last) })
			stats.Emails++
		}
		if g.chance(g.cfg.PIIChance) {
			rec[FieldPhone] = g.maybeShared(&g.pools.phones, g.randomPhone)
			stats.Phones++
		}
		if g.chance(g.cfg.PIIChance) {
			rec[FieldAddress] = g.maybeShared(&g.pools.addresses, g.randomAddress)
			stats.Addresses++
		}
		if g.chance(g.cfg.PIIChance / 4) {
			rec[FieldNote] = "please contact " + g.randomEmail(first, last) + " for details"
			stats.EmbeddedEmail++
		} else {
			rec[FieldNote] = g.randomNote()
		}
		records[i] = rec
	}

	return Output{Records: records, Stats: stats}, nil
}

type attributePools struct {
	emails    []string
	phones    []string
	addresses []string
}

func (g *Generator) chance(p float64) bool {
	return g.rand.Float64() < p
}

func (g *Generator) maybeShared(pool *[]string, newValue func() string) string {
	if len(*pool) > 0 && g.chance(g.cfg.SharedChance) {
		return (*pool)[g.rand.Intn(len(*pool))]
	}
	val := newValue()
	*pool = append(*pool, val)
	return val
}

func (g *Generator) idPrefix() string {
	var b strings.Builder
	// Leading digit 1..8 is the registration category.
	b.WriteByte(byte('1' + g.rand.Intn(8)))
	for i := 0; i < 11; i++ {
		b.WriteByte(byte('0' + g.rand.Intn(10)))
	}
	return b.String()
}

func (g *Generator) validNationalID() string {
	prefix := g.idPrefix()
	digit, _ := pdpa.NationalIDCheckDigit(prefix)
	return prefix + string(digit)
}

func (g *Generator) invalidNationalID() string {
	prefix := g.idPrefix()
	digit, _ := pdpa.NationalIDCheckDigit(prefix)
	wrong := byte('0' + (int(digit-'0')+1+g.rand.Intn(9))%10)
	return prefix + string(wrong)
}

func (g *Generator) randomName() (string, string) {
	return g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))],
		g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))]
}

func (g *Generator) randomEmail(first, last string) string {
	domain := g.nameFragments.domains[g.rand.Intn(len(g.nameFragments.domains))]
	return fmt.Sprintf("%s.%s%d@%s", strings.ToLower(first), strings.ToLower(last), g.rand.Intn(100), domain)
}

// Mobile numbers start 06, 08 or 09 and are written with or without dashes.
func (g *Generator) randomPhone() string {
	prefixes := []string{"06", "08", "09"}
	p := prefixes[g.rand.Intn(len(prefixes))]
	mid, tail := g.rand.Intn(1000), g.rand.Intn(10000)
	if g.rand.Intn(2) == 0 {
		return fmt.Sprintf("%s%d-%03d-%04d", p, g.rand.Intn(10), mid, tail)
	}
	return fmt.Sprintf("%s%d%03d%04d", p, g.rand.Intn(10), mid, tail)
}

func (g *Generator) randomAddress() string {
	f := g.nameFragments
	if g.rand.Intn(2) == 0 {
		return fmt.Sprintf("%d/%d หมู่ %d ถนน%s แขวง%s เขต%s %s",
			g.rand.Intn(999)+1, g.rand.Intn(99)+1, g.rand.Intn(12)+1,
			f.thaiRoads[g.rand.Intn(len(f.thaiRoads))],
			f.thaiSubDistricts[g.rand.Intn(len(f.thaiSubDistricts))],
			f.thaiDistricts[g.rand.Intn(len(f.thaiDistricts))],
			f.thaiProvinces[g.rand.Intn(len(f.thaiProvinces))],
		)
	}
	return fmt.Sprintf("%d Soi %d, %s Road, %s District, %s Province %05d",
		g.rand.Intn(999)+1, g.rand.Intn(120)+1,
		f.roads[g.rand.Intn(len(f.roads))],
		f.districts[g.rand.Intn(len(f.districts))],
		f.provinces[g.rand.Intn(len(f.provinces))],
		10000+g.rand.Intn(90000),
	)
}

func (g *Generator) randomNote() string {
	notes := []string{"walk-in registration", "renewal", "transferred from branch", "n/a", "verified by officer"}
	return notes[g.rand.Intn(len(notes))]
}

type nameFragments struct {
	first            []string
	last             []string
	domains          []string
	roads            []string
	districts        []string
	provinces        []string
	thaiRoads        []string
	thaiSubDistricts []string
	thaiDistricts    []string
	thaiProvinces    []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:            []string{"Somchai", "Somsak", "Malee", "Niran", "Pranee", "Kittisak", "Suda", "Anong", "Wichai", "Ratana", "Chai", "Nok"},
		last:             []string{"Srisuk", "Wongsawat", "Chaiyaporn", "Thongdee", "Boonmee", "Saetang", "Rattanakorn", "Phromma"},
		domains:          []string{"example.com", "mail.co.th", "gov.example.th", "inbox.test"},
		roads:            []string{"Sukhumvit", "Rama IV", "Phahonyothin", "Silom", "Ratchadaphisek", "Charoen Krung"},
		districts:        []string{"Pathum Wan", "Bang Rak", "Chatuchak", "Watthana", "Mueang"},
		provinces:        []string{"Bangkok", "Chiang Mai", "Khon Kaen", "Phuket", "Nonthaburi"},
		thaiRoads:        []string{"สุขุมวิท", "พระราม 4", "พหลโยธิน", "สีลม"},
		thaiSubDistricts: []string{"ลุมพินี", "สีลม", "จตุจักร", "คลองตันเหนือ"},
		thaiDistricts:    []string{"ปทุมวัน", "บางรัก", "จตุจักร", "วัฒนา"},
		thaiProvinces:    []string{"กรุงเทพมหานคร", "เชียงใหม่", "ขอนแก่น", "ภูเก็ต"},
	}
}
