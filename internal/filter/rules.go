package filter

import (
	"regexp"

	"golang.org/x/net/html"

	"github.com/heartmarshall/jawiki-kana-dict/internal/kana"
)

// Character classes shared by the rule tables. Go's \s and \d are ASCII-only,
// so whitespace and digits are spelled out to cover full-width forms.
const (
	ws     = `[\s\p{Z}]`
	digit  = `\p{Nd}`
	kanji  = kana.KanjiBlock
	script = `[` + kana.HiraganaBlock + kana.KanjiBlock + kana.KatakanaBlock + `]`
)

// Rewrite deletes or replaces every match of Pattern. When Func is set it
// computes the replacement from the matched text instead of Replacement.
type Rewrite struct {
	Pattern     *regexp.Regexp
	Replacement string
	Func        func(string) string
}

func (rw Rewrite) apply(s string) string {
	if rw.Func != nil {
		return rw.Pattern.ReplaceAllStringFunc(s, rw.Func)
	}
	return rw.Pattern.ReplaceAllString(s, rw.Replacement)
}

func del(pattern string) Rewrite {
	return Rewrite{Pattern: regexp.MustCompile(pattern)}
}

func sub(pattern, replacement string) Rewrite {
	return Rewrite{Pattern: regexp.MustCompile(pattern), Replacement: replacement}
}

// Rules is the ordered, immutable configuration of the entry filter.
// Build it once with DefaultRules, adjust it if needed, and do not modify it
// after passing it to New.
type Rules struct {
	// Phase 1, checked against raw text.
	IgnorableReadingPrefixes  []string
	IgnorableHeadwordPrefixes []string
	// Readings starting with "または" are cross-references unless listed here.
	OrReadingAllowList []string
	TitleBlacklist     []string

	BasicRewrites    []Rewrite
	HeadwordRewrites []Rewrite
	// NameSpacing joins "family given" pairs; applied to a fixpoint.
	NameSpacing *regexp.Regexp
	// ReadingTrailers are applied in order, repeatedly, until none fires.
	ReadingTrailers []Rewrite

	// Phase 2, checked against cleaned text.
	ForbiddenHeadwordPrefixes []string
	ForbiddenHeadwordSuffixes []string
	ForbiddenReadingPrefixes  []string
	ForbiddenReadingInfixes   []string
	ForbiddenHeadwordInfixes  []string
	InvalidHeadwordPatterns   []*regexp.Regexp

	// Entity lists longer than EntityListMaxSize whose mean edit distance
	// from the first candidate exceeds EntityDistanceThreshold are dropped.
	EntityListMaxSize       int
	EntityDistanceThreshold float64
	EntityExemptSuffixes    []string
	EntityExemptPrefixes    []string

	// MaxIterations caps every fixpoint loop.
	MaxIterations int
}

// DefaultRules returns the rule set used to build the jawiki dictionary.
func DefaultRules() *Rules {
	return &Rules{
		IgnorableReadingPrefixes:  []string{"[[", "いま、", "あるいは", "もしくは", "▢"},
		IgnorableHeadwordPrefixes: []string{"』"},
		OrReadingAllowList:        []string{"またはちろう", "またはりひゃっかてん", "またはり"},
		TitleBlacklist: []string{
			// Source mecha names sit inside the parentheses.
			"トランスフォーマー ギャラクシーフォース",
			// Readings are only partially filled in.
			"アイドル・ジェネレーション 第2次・萌えっ子大戦争!!",
			// Coined terms of a light novel.
			"Dクラッカーズ",
		},

		BasicRewrites: []Rewrite{
			// &lt;ref&gt;1883(明治)年宣下、明治天皇&lt;/ref&gt;
			del(`&lt;ref.*`),
			del(`&lt;!--.*--&gt;`),
			// 池の平スノーパーク（旧白樺リゾートスキー場）
			del(`（旧.*?）`),
			// 砂川奈美(旧姓:伊藤)
			del(`[（(](旧姓|本名)[:：].*?[）)]`),
			del(`（(` + digit + `+|[一-九])代目?）`),
			del(`（初代）`),
			// Leading or trailing middle dots are markup failures.
			del(`^・`),
			del(`・$`),
			sub(`&amp;`, "&"),
			{Pattern: regexp.MustCompile(`&(?:[a-z_-]+|#[0-9]+|#x[0-9A-Fa-f]+);`), Func: html.UnescapeString},
		},

		HeadwordRewrites: []Rewrite{
			// {{lang|en|AMBAC}}
			sub(`\{\{lang\|[a-zA-Z_-]+\|(.+?)\}\}`, "${1}"),
			// {{CP932フォント|髙}}千代酒造, {{Anchor|穴子包丁}}, マッチデー{{unicode|♥}}Jリーグ
			sub(`\{\{(?:En|IPA-en|要出典範囲|linktext|unicode|Anchor|Vanchor|[A-Z0-9]+フォント)\|(.+)\}\}`, "${1}"),
			// [[ページ名|リンクラベル]]
			sub(`\[\[(?:.*)\|(.*)\]\]`, "${1}"),
			sub(`\[\[(.*)\]\]`, "${1}"),
			sub(ws+`+`, " "),
		},
		NameSpacing: regexp.MustCompile(`(` + script + `+)[ 　]+(` + script + `+)`),

		ReadingTrailers: []Rewrite{
			del(`^のちの('''|\[\[).*`),
			del(`、声 - .*`),
			del(`\[\[` + digit + `+年\]\].*`),
			del(`\[\[` + digit + `+月` + digit + `+日\]\].*`),
			del(`''.*`),
			del(`\{\{.*`),
			del(digit + `+月` + digit + `+日.*`),
			del(`\?` + ws + `*-` + ws + `*$`),
			del(`[、][a-zA-Z]+[` + kanji + `]+$`),
			del(`[、][` + kanji + `]+$`),
			del(`[、][「].*`),
			del(`(?:[` + kanji + `]+)?([0-9?]+|元)年.*`),
			del(`(生年不詳|生年月日非公表|生没年不詳).*`),
			del(`現在の芸名.*`),
			del(`\[\[[` + kanji + `]+\]\].*`),
			del(`(?:英文(名称|表記)|旧名|現姓|旧姓|通称|英文名|原題|ドイツ語|英語|英語表記|英語名称|英文社名|オランダ語|満州語|旧|旧芸名|中国語簡体字|漢語名字|略称|本名|英称|英)[:：；;は・].*`),
			del(`[（:：,]` + ws + `*$`),
			del(`[,、][（:：,]` + ws + `*$`),
			del(`[,、]\[\[.*$`),
			del(`[、,][ A-Za-z.'&]+$`),
			del(`[、,][ A-Za-z.'\-` + kanji + `]+$`),
			del(`、[（:：\-]*[ A-Za-z]+$`),
			del(`、(略称|詳しくは|本名` + ws + `*同じ|単に).*$`),
			del(`[？?、－]+` + ws + `*$`),
			del(ws + `*$`),
			del(`\[\[$`),
		},

		ForbiddenHeadwordPrefixes: []string{"〜", "『", "「", "＜", "〈", "《", "／", "日本の"},
		ForbiddenHeadwordSuffixes: []string{"・"},
		ForbiddenReadingPrefixes: []string{
			// ただし、[[Xbox 360]]はどちらの規格にも対応せず
			// Only fires when cleanReading keeps the delimiter; a reading made of
			// kana segments has already collapsed to "ただし".
			"ただし、",
			// （あるいはエコー、ハーフ・ミュート）と呼ばれる。
			"あるいは",
			"おりんぴっくの",
		},
		ForbiddenReadingInfixes: []string{" または ", "における", "'''", "["},
		ForbiddenHeadwordInfixes: []string{
			// Keyboard / kAoru ikArAshi / 五十嵐 馨
			"/",
			"''",
			"{{",
			"[[",
			"(",
			"（",
		},
		InvalidHeadwordPatterns: []*regexp.Regexp{
			regexp.MustCompile(`^` + digit + `+(月|世紀|年代)`),
			// 9代式守伊之助
			regexp.MustCompile(`^` + digit + `+代`),
			// KANJI<<4004>> YOMI<<よんまるまるよん>>
			regexp.MustCompile(`^[0-9]+$`),
			// '''10.『七変化狸御殿』'''
			regexp.MustCompile(`^[0-9]+\.『`),
			regexp.MustCompile(`^\{\{仮リンク`),
			regexp.MustCompile(`^日本の企業一覧`),
			regexp.MustCompile(`^.*の登場(?:人物|キャラクター|仮面ライダー|怪獣|メカ|兵器|組織|馬|人物一覧|レスラー|人物の索引)$`),
			// 第43話 - 第45話
			regexp.MustCompile(`^第` + digit + `+話`),
		},

		EntityListMaxSize:       3,
		EntityDistanceThreshold: 5,
		// Ancient Japanese proper nouns vary widely in reading
		// (しなぬのくにのみやつこ /科野国造/), as do romanised Chinese names
		// (えん ぼくし、ユエン・ムーチー、ユアン・ムーチー、イエン・ムーツー).
		EntityExemptSuffixes: []string{"みやつこ"},
		EntityExemptPrefixes: []string{"えん"},

		MaxIterations: 100,
	}
}
