package filter

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/jawiki-kana-dict/internal/domain"
	"github.com/heartmarshall/jawiki-kana-dict/internal/kana"
)

type skipRecorder struct {
	reasons  []string
	contexts [][]string
}

func (r *skipRecorder) ReportSkip(reason string, context []string) {
	r.reasons = append(r.reasons, reason)
	r.contexts = append(r.contexts, context)
}

func newTestFilter(t *testing.T) (*Filter, *skipRecorder) {
	t.Helper()
	rec := &skipRecorder{}
	return New(DefaultRules(), rec), rec
}

func TestFilter_Accepted(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		headword string
		reading  string
		want     domain.Entry
	}{
		{"katakana suffix matches", "赤プル", "あかぷる", domain.Entry{Headword: "赤プル", Reading: "あかぷる"}},
		{"katakana reading converted", "赤プル", "アカプル", domain.Entry{Headword: "赤プル", Reading: "あかぷる"}},
		{"family and given name joined", "山田 太郎", "やまだ たろう", domain.Entry{Headword: "山田太郎", Reading: "やまだたろう"}},
		{"full width name space", "山田　太郎", "やまだ　たろう", domain.Entry{Headword: "山田太郎", Reading: "やまだたろう"}},
		{"lang template unwrapped", "{{lang|en|AMBAC}}", "あんばっく", domain.Entry{Headword: "AMBAC", Reading: "あんばっく"}},
		{"font template unwrapped", "{{JIS90フォント|辻}}香緒里", "つじかおり", domain.Entry{Headword: "辻香緒里", Reading: "つじかおり"}},
		{"piped link collapsed", "東京[[都庁|都庁舎]]", "とうきょうとちょうしゃ", domain.Entry{Headword: "東京都庁舎", Reading: "とうきょうとちょうしゃ"}},
		{"birth date stripped", "青井惟董", "あおい これただ、[[1950年]][[1月1日]] - ", domain.Entry{Headword: "青井惟董", Reading: "あおいこれただ"}},
		{"era year stripped", "山田太郎", "やまだたろう、1950年 - ", domain.Entry{Headword: "山田太郎", Reading: "やまだたろう"}},
		{"voice actor stripped", "赤プル", "あかぷる、声 - 山田花子", domain.Entry{Headword: "赤プル", Reading: "あかぷる"}},
		{"old form restatement dropped", "今鷹 真", "今鷹 眞、いまたか まこと", domain.Entry{Headword: "今鷹真", Reading: "いまたかまこと"}},
		{"kana alternatives collapse to first", "ISO", "アイエスオー、イソ、アイソ", domain.Entry{Headword: "ISO", Reading: "あいえすおー"}},
		{"exempt enumeration kept", "袁 牧之", "えん ぼくし、ユエン・ムーチー、ユアン・ムーチー、イエン・ムーツー", domain.Entry{Headword: "袁牧之", Reading: "えんぼくし"}},
		{"similar alternatives kept", "亜衣", "あいうえお、あいうえか、あいうえき、あいうえく", domain.Entry{Headword: "亜衣", Reading: "あいうえお"}},
		{"corporate designator removed", "株式会社姶良サティ", "かぶしきがいしゃあいらさてぃ", domain.Entry{Headword: "姶良サティ", Reading: "あいらさてぃ"}},
		{"footnote stripped", "安蘇山&lt;ref&gt;国土地理院&lt;/ref&gt;", "あそさん", domain.Entry{Headword: "安蘇山", Reading: "あそさん"}},
		{"html entity decoded", "A&amp;B商会", "えーあんどびーしょうかい", domain.Entry{Headword: "A&B商会", Reading: "えーあんどびーしょうかい"}},
		{"former name removed", "池の平スノーパーク（旧白樺リゾートスキー場）", "いけのたいらすのーぱーく", domain.Entry{Headword: "池の平スノーパーク", Reading: "いけのたいらすのーぱーく"}},
		{"generation removed", "京山華千代（初代）", "きょうやま はなちよ", domain.Entry{Headword: "京山華千代", Reading: "きょうやまはなちよ"}},
		{"allowed または reading", "又針", "またはり", domain.Entry{Headword: "又針", Reading: "またはり"}},
		{"old kana assimilated", "木内キヤウ", "きうちきょう", domain.Entry{Headword: "木内キヤウ", Reading: "きうちきょう"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, rec := newTestFilter(t)

			got, err := f.Apply(domain.RawTriple{Headword: tt.headword, Reading: tt.reading})
			require.NoError(t, err)
			require.NotNil(t, got, "rejected: %v %v", rec.reasons, rec.contexts)
			assert.Equal(t, tt.want, *got)
			assert.Empty(t, rec.reasons)
		})
	}
}

func TestFilter_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		triple     domain.RawTriple
		wantReason string
	}{
		{
			name:       "page link headword",
			triple:     domain.RawTriple{Headword: "[[葉状体]]", Reading: "ようじょうたい"},
			wantReason: "kanji is page link",
		},
		{
			name:       "blacklisted title",
			triple:     domain.RawTriple{Title: "トランスフォーマー ギャラクシーフォース", Headword: "正常な見出し", Reading: "せいじょうなみだし"},
			wantReason: "Title is in the blacklist",
		},
		{
			name:       "alternative reading prefix",
			triple:     domain.RawTriple{Headword: "ハーフ・ストップ", Reading: "あるいはえこー"},
			wantReason: "ignorable yomi prefix: あるいは",
		},
		{
			name:       "または cross reference",
			triple:     domain.RawTriple{Headword: "何某", Reading: "またはなにがし"},
			wantReason: "ignorable yomi prefix: または",
		},
		{
			name:       "stray closing quote",
			triple:     domain.RawTriple{Headword: "』七変化", Reading: "しちへんげ"},
			wantReason: "ignorable kanji prefix: 』",
		},
		{
			name:       "generation number headword",
			triple:     domain.RawTriple{Headword: "10代式守与太夫", Reading: "しきもりよだゆう"},
			wantReason: "Invalid kanji pattern",
		},
		{
			name:       "character list title",
			triple:     domain.RawTriple{Headword: "ときめきメモリアル2の登場人物", Reading: "ときめきめもりあるつーのとうじょうじんぶつ"},
			wantReason: "Invalid kanji pattern",
		},
		{
			name:       "numeric headword",
			triple:     domain.RawTriple{Headword: "4004", Reading: "よんまるまるよん"},
			wantReason: "Invalid kanji pattern",
		},
		{
			name:       "single character headword",
			triple:     domain.RawTriple{Headword: "猫", Reading: "ねこ"},
			wantReason: "kanji is single character",
		},
		{
			name:       "hiragana headword",
			triple:     domain.RawTriple{Headword: "ひらがな", Reading: "ひらがなことば"},
			wantReason: "kanji is hiragana",
		},
		{
			name:       "middle dot in reading",
			triple:     domain.RawTriple{Headword: "東京", Reading: "とう・きょう"},
			wantReason: "yomi contains non-hiragana char",
		},
		{
			name:       "olympics false positive",
			triple:     domain.RawTriple{Headword: "五輪競技", Reading: "おりんぴっくのきょうぎ"},
			wantReason: "yomi starts with おりんぴっくの",
		},
		{
			name:       "headword with slash",
			triple:     domain.RawTriple{Headword: "五十嵐/馨", Reading: "いからしかおる"},
			wantReason: "kanji contains /",
		},
		{
			name:       "generic japan prefix",
			triple:     domain.RawTriple{Headword: "日本の企業", Reading: "にほんのきぎょう"},
			wantReason: "kanji starts with 日本の",
		},
		{
			name:       "unrelated enumeration",
			triple:     domain.RawTriple{Headword: "森ガールの集い", Reading: "かまいたち、おれんじさんせっと、ひのもとぶるー、しゃもじすぷーん"},
			wantReason: "yomi is empty",
		},
		{
			name:       "いま cross reference",
			triple:     domain.RawTriple{Headword: "東京", Reading: "いま、とうきょう"},
			wantReason: "ignorable yomi prefix: いま、",
		},
		{
			name:       "もしくは cross reference",
			triple:     domain.RawTriple{Headword: "東京", Reading: "もしくはとうきょう"},
			wantReason: "ignorable yomi prefix: もしくは",
		},
		{
			name:       "placeholder box reading",
			triple:     domain.RawTriple{Headword: "東京", Reading: "▢とうきょう"},
			wantReason: "ignorable yomi prefix: ▢",
		},
		{
			name:       "locative reading",
			triple:     domain.RawTriple{Headword: "中世都市", Reading: "ちゅうせいにおけるとし"},
			wantReason: "yomi contains における",
		},
		{
			name:       "month headword",
			triple:     domain.RawTriple{Headword: "12月革命", Reading: "じゅうにがつかくめい"},
			wantReason: "Invalid kanji pattern",
		},
		{
			name:       "decade headword",
			triple:     domain.RawTriple{Headword: "1980年代", Reading: "せんきゅうひゃくはちじゅうねんだい"},
			wantReason: "Invalid kanji pattern",
		},
		{
			name:       "numbered list item headword",
			triple:     domain.RawTriple{Headword: "10.『七変化狸御殿』", Reading: "しちへんげたぬきごてん"},
			wantReason: "Invalid kanji pattern",
		},
		{
			name:       "episode headword",
			triple:     domain.RawTriple{Headword: "第43話", Reading: "だいよんじゅうさんわ"},
			wantReason: "Invalid kanji pattern",
		},
		{
			name:       "tentative link template",
			triple:     domain.RawTriple{Headword: "{{仮リンク|東京|en|Tokyo}}", Reading: "とうきょう"},
			wantReason: "kanji contains {{",
		},
		{
			name:       "italic markup headword",
			triple:     domain.RawTriple{Headword: "''東京''", Reading: "とうきょう"},
			wantReason: "kanji contains ''",
		},
		{
			name:       "half width parenthesis headword",
			triple:     domain.RawTriple{Headword: "東京(都)", Reading: "とうきょう"},
			wantReason: "kanji contains (",
		},
		{
			name:       "full width parenthesis headword",
			triple:     domain.RawTriple{Headword: "東京（都）", Reading: "とうきょう"},
			wantReason: "kanji contains （",
		},
		{
			name:       "reading is only a date",
			triple:     domain.RawTriple{Headword: "監督", Reading: "[[1950年]]"},
			wantReason: "ignorable yomi prefix: [[",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f, rec := newTestFilter(t)

			got, err := f.Apply(tt.triple)
			require.NoError(t, err)
			assert.Nil(t, got)
			require.Len(t, rec.reasons, 1)
			assert.Equal(t, tt.wantReason, rec.reasons[0])
		})
	}
}

// The hiragana check runs before the reading infix table, so infixes outside
// hiragana are reported as non-hiragana.
func TestValidatePhase2_NonHiraganaInfixesRejectedEarlier(t *testing.T) {
	t.Parallel()

	for _, reading := range []string{"あか または あお", "あか'''あお", "あか[あお"} {
		f, rec := newTestFilter(t)

		assert.False(t, f.validatePhase2("赤青", reading), reading)
		assert.Equal(t, []string{"yomi contains non-hiragana char"}, rec.reasons, reading)
	}
}

// Tentative-link templates are caught by the {{ infix before the
// headword pattern table is consulted.
func TestValidatePhase2_TentativeLinkPattern(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	rules.ForbiddenHeadwordInfixes = nil
	rec := &skipRecorder{}

	assert.False(t, New(rules, rec).validatePhase2("{{仮リンク|東京", "とうきょう"))
	assert.Equal(t, []string{"Invalid kanji pattern"}, rec.reasons)
}

// The ただし、 reading prefix is checked after alternatives collapse to the
// first kana segment, which drops the delimiter, so the clause survives as a
// truncated reading.
func TestFilter_HoweverClauseCollapsesToFirstSegment(t *testing.T) {
	t.Parallel()
	f, rec := newTestFilter(t)

	got, err := f.Apply(domain.RawTriple{Headword: "東京会議", Reading: "ただし、とうきょう"})
	require.NoError(t, err)
	require.NotNil(t, got, "rejected: %v", rec.reasons)
	assert.Equal(t, domain.Entry{Headword: "東京会議", Reading: "ただし"}, *got)

	rec.reasons = nil
	assert.False(t, f.validatePhase2("東京会議", "ただし、とうきょう"))
	assert.Equal(t, []string{"yomi starts with ただし、"}, rec.reasons)
}

func TestFilter_BlacklistContextIncludesTitle(t *testing.T) {
	t.Parallel()
	f, rec := newTestFilter(t)

	_, err := f.Apply(domain.RawTriple{Title: "Dクラッカーズ", Headword: "物質", Reading: "ぶっしつ"})
	require.NoError(t, err)
	require.Len(t, rec.contexts, 1)
	assert.Equal(t, []string{"Dクラッカーズ", "物質", "ぶっしつ"}, rec.contexts[0])
}

func TestFilter_KatakanaAffixMismatch(t *testing.T) {
	t.Parallel()
	f, rec := newTestFilter(t)

	got, err := f.Apply(domain.RawTriple{Headword: "ゲーム機", Reading: "てれびき"})
	require.NoError(t, err)
	assert.Nil(t, got)
	require.Len(t, rec.reasons, 1)
	assert.True(t, strings.HasPrefix(rec.reasons[0], "Kanji prefix and yomi prefix aren't same"), rec.reasons[0])

	rec.reasons = nil
	got, err = f.Apply(domain.RawTriple{Headword: "携帯ゲーム", Reading: "けいたいでんわ"})
	require.NoError(t, err)
	assert.Nil(t, got)
	require.Len(t, rec.reasons, 1)
	assert.True(t, strings.HasPrefix(rec.reasons[0], "Kanji postfix and yomi postfix aren't same"), rec.reasons[0])
}

func TestFilter_AcceptedInvariantsAndIdempotence(t *testing.T) {
	t.Parallel()
	f, _ := newTestFilter(t)

	inputs := []domain.RawTriple{
		{Headword: "赤プル", Reading: "あかぷる"},
		{Headword: "青井惟董", Reading: "あおい これただ、[[1950年]][[1月1日]] - "},
		{Headword: "今鷹 真", Reading: "今鷹 眞、いまたか まこと"},
		{Headword: "株式会社姶良サティ", Reading: "かぶしきがいしゃあいらさてぃ"},
		{Headword: "A&amp;B商会", Reading: "えーあんどびーしょうかい"},
		{Headword: "ISO", Reading: "アイエスオー、イソ、アイソ"},
		{Headword: "Mr. Children", Reading: "みすたーちるどれん"},
	}

	for _, in := range inputs {
		got, err := f.Apply(in)
		require.NoError(t, err)
		require.NotNil(t, got, "input %v rejected", in)

		assert.GreaterOrEqual(t, utf8.RuneCountInString(got.Headword), 2)
		assert.GreaterOrEqual(t, utf8.RuneCountInString(got.Reading), 2)
		assert.True(t, kana.IsHiragana(got.Reading), "reading %q", got.Reading)

		again, err := f.Apply(domain.RawTriple{Headword: got.Headword, Reading: got.Reading})
		require.NoError(t, err)
		require.NotNil(t, again, "re-filtering %v rejected it", got)
		assert.Equal(t, *got, *again)
	}
}

func TestFilter_FixpointCap(t *testing.T) {
	t.Parallel()

	t.Run("limit reached while still converging", func(t *testing.T) {
		t.Parallel()
		rules := DefaultRules()
		rules.MaxIterations = 1

		_, err := New(rules, nil).Apply(domain.RawTriple{Headword: "山田", Reading: "やまだ、[[1950年]]"})
		require.ErrorIs(t, err, domain.ErrFixpointExhausted)
	})

	t.Run("rule that never converges", func(t *testing.T) {
		t.Parallel()
		rules := DefaultRules()
		rules.ReadingTrailers = []Rewrite{sub(`$`, "あ")}

		_, err := New(rules, nil).Apply(domain.RawTriple{Headword: "山田", Reading: "やまだ"})
		require.ErrorIs(t, err, domain.ErrFixpointExhausted)
	})

	t.Run("converging input within limit", func(t *testing.T) {
		t.Parallel()
		rules := DefaultRules()
		rules.MaxIterations = 3

		got, err := New(rules, nil).Apply(domain.RawTriple{Headword: "山田", Reading: "やまだ、[[1950年]]"})
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "やまだ", got.Reading)
	})
}

func TestFilter_ExtraTitleBlacklist(t *testing.T) {
	t.Parallel()

	rules := DefaultRules()
	rules.TitleBlacklist = append(rules.TitleBlacklist, "壊れた記事")
	rec := &skipRecorder{}

	got, err := New(rules, rec).Apply(domain.RawTriple{Title: "壊れた記事", Headword: "赤プル", Reading: "あかぷる"})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, []string{"Title is in the blacklist"}, rec.reasons)
}

func TestSkipReporterFunc(t *testing.T) {
	t.Parallel()

	var got string
	var r SkipReporter = SkipReporterFunc(func(reason string, _ []string) { got = reason })
	r.ReportSkip("kanji is empty", nil)
	assert.Equal(t, "kanji is empty", got)
}
