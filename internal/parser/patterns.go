package parser

import "regexp"

// pattern is a single intent/lexicon trigger. Exact marks a literal
// brand-name or keyword whose match should additionally count as an
// "exact substring" hit for the intent-scoring bonus.
type pattern struct {
	re    *regexp.Regexp
	exact bool
}

func mustPatterns(exact bool, exprs ...string) []pattern {
	out := make([]pattern, len(exprs))
	for i, e := range exprs {
		out[i] = pattern{re: regexp.MustCompile(e), exact: exact}
	}
	return out
}

// intentPatternSet holds the diacritic-bearing pattern list (matched against
// the normalized form) and the diacritic-stripped pattern list (matched
// against the stripped form) for one intent.
type intentPatternSet struct {
	diacritic []pattern
	stripped  []pattern
}

// intentPatterns lists, per intent, the two pattern sets. Brand names are
// registered as exact patterns: a hit against them both matches the general
// pattern group and earns the +0.20 exact-substring bonus.
var intentPatterns = map[string]intentPatternSet{
	"find_restaurant": {
		diacritic: append(mustPatterns(false,
			`quán ăn|nhà hàng|ăn uống|buffet|thức ăn|món ăn|bữa ăn|đói|thèm|muốn ăn|quán cà phê`,
		), mustPatterns(true,
			`bellissimo`, `silk path`, `sheraton`, `renaissance`, `capella`, `mercure`, `daewoo`,
		)...),
		stripped: append(mustPatterns(false,
			`quan an|nha hang|an uong|buffet|thuc an|mon an|bua an|doi|them|muon an|quan ca phe|restaurant|food|dining|cafe`,
		), mustPatterns(true,
			`bellissimo`, `silk path`, `sheraton`, `renaissance`, `capella`, `mercure`, `daewoo`,
		)...),
	},
	"find_hotel": {
		diacritic: mustPatterns(false, `khách sạn|resort|homestay|villa|nơi ở|nghỉ dưỡng|ngủ|nghỉ|ở lại`),
		stripped:  mustPatterns(false, `khach san|resort|homestay|villa|noi o|nghi duong|ngu|nghi|o lai|hotel|accommodation|stay`),
	},
	"find_entertainment": {
		diacritic: mustPatterns(false, `giải trí|vui chơi|trò chơi|sự kiện|thư giãn`),
		stripped:  mustPatterns(false, `giai tri|vui choi|tro choi|su kien|thu gian|entertainment|fun|event`),
	},
	"find_shopping": {
		diacritic: mustPatterns(false, `mua sắm|cửa hàng|siêu thị|tìm mua`),
		stripped:  mustPatterns(false, `mua sam|cua hang|sieu thi|tim mua|shopping|shop|store`),
	},
	"find_beauty": {
		diacritic: mustPatterns(false, `làm đẹp|spa|massage|salon|chăm sóc`),
		stripped:  mustPatterns(false, `lam dep|spa|massage|salon|cham soc|beauty|wellness`),
	},
	"find_travel": {
		diacritic: mustPatterns(false, `du lịch|tour|khám phá|check.?in`),
		stripped:  mustPatterns(false, `du lich|tour|kham pha|check.?in|travel|trip`),
	},
	"find_kids": {
		diacritic: mustPatterns(false, `trẻ em|trẻ con|bé yêu|em bé|khu vui chơi trẻ em|chỗ.*chơi.*trẻ|chỗ cho trẻ`),
		stripped:  mustPatterns(false, `tre em|tre con|be yeu|em be|khu vui choi tre em|cho.*choi.*tre|children|kids`),
	},
}

// serviceLexicon maps a service-requirement tag to trigger patterns,
// matched against both the normalized and stripped forms.
var serviceLexicon = map[string][]pattern{
	"kids_friendly": mustPatterns(false, `trẻ em|tre em|trẻ con|tre con|khu vui chơi|khu vui choi|chỗ.*chơi|cho.*choi|playground`),
	"romantic":      mustPatterns(false, `lãng mạn|lang man|romantic|cặp đôi|cap doi|hẹn hò|hen ho`),
	"group_dining":  mustPatterns(false, `nhóm|nhom|group|đông người|dong nguoi|tiệc|tiec|party`),
	"outdoor":       mustPatterns(false, `ngoài trời|ngoai troi|outdoor|sân vườn|san vuon`),
	"indoor":        mustPatterns(false, `trong nhà|trong nha|indoor|máy lạnh|may lanh|điều hòa|dieu hoa`),
}

// targetLexicon maps a target-audience tag to trigger patterns.
var targetLexicon = map[string][]pattern{
	"family":   mustPatterns(false, `gia đình|gia dinh|family|cả nhà|ca nha`),
	"couple":   mustPatterns(false, `cặp đôi|cap doi|couple|hai người|hai nguoi`),
	"friends":  mustPatterns(false, `bạn bè|ban be|friends|hội bạn|hoi ban`),
	"business": mustPatterns(false, `công việc|cong viec|business|họp|hop|đối tác|doi tac`),
	"solo":     mustPatterns(false, `một mình|mot minh|solo|cá nhân|ca nhan`),
}

// priceCues maps a price-range tag to trigger patterns, tested in the fixed
// order priceRangeOrder so at most one price preference is recorded.
var priceCues = map[string][]pattern{
	"budget":    mustPatterns(false, `rẻ|re|bình dân|binh dan|tiết kiệm|tiet kiem|giá thấp|gia thap|sinh viên|sinh vien|cheap|budget`),
	"mid-range": mustPatterns(false, `tầm trung|tam trung|bình thường|binh thuong|vừa phải|vua phai|mid.?range`),
	"premium":   mustPatterns(false, `cao cấp|cao cap|premium`),
	"luxury":    mustPatterns(false, `sang trọng|sang trong|luxury|đẳng cấp|dang cap|vip`),
}

var priceRangeOrder = []string{"budget", "mid-range", "premium", "luxury"}

// locationCuePatterns are ordered cue-phrase regexes with a capture group
// for the location surface form that follows the cue word.
var locationCuePatterns = []*regexp.Regexp{
	regexp.MustCompile(`tại\s+([\p{L}0-9\s]+?)(?:[,.]|$)`),
	regexp.MustCompile(`tai\s+([\p{L}0-9\s]+?)(?:[,.]|$)`),
	regexp.MustCompile(`ở\s+([\p{L}0-9\s]+?)(?:[,.]|$)`),
	regexp.MustCompile(`o\s+([\p{L}0-9\s]+?)(?:[,.]|$)`),
	regexp.MustCompile(`trong\s+([\p{L}0-9\s]+?)(?:[,.]|$)`),
}

var stopWords = map[string]struct{}{
	"tôi": {}, "toi": {}, "tại": {}, "tai": {}, "ở": {}, "o": {}, "trong": {},
	"có": {}, "co": {}, "là": {}, "la": {}, "và": {}, "va": {}, "với": {}, "voi": {},
	"cho": {}, "của": {}, "cua": {}, "một": {}, "mot": {}, "các": {}, "cac": {},
	"này": {}, "nay": {}, "đó": {}, "do": {}, "được": {}, "duoc": {}, "sẽ": {}, "se": {},
	"đã": {}, "da": {}, "từ": {}, "tu": {}, "về": {}, "ve": {}, "như": {}, "nhu": {},
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {},
}
