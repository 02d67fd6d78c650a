package kana

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// variantKanji maps traditional and variant ideographs to the forms used in
// modern headwords.
var variantKanji = strings.NewReplacer(
	"眞", "真", "國", "国", "學", "学", "藝", "芸", "澤", "沢",
	"邊", "辺", "邉", "辺", "齋", "斎", "齊", "斉", "櫻", "桜",
	"廣", "広", "黑", "黒", "髙", "高", "﨑", "崎", "濱", "浜",
	"實", "実", "惠", "恵", "壽", "寿", "與", "与", "圓", "円",
	"會", "会", "氣", "気", "佛", "仏", "傳", "伝", "對", "対",
	"榮", "栄", "聲", "声", "鐵", "鉄", "驛", "駅", "醫", "医",
	"體", "体", "德", "徳", "縣", "県", "關", "関", "豐", "豊",
	"禮", "礼", "萬", "万", "峯", "峰", "嶋", "島", "嶌", "島",
	"冨", "富", "龜", "亀", "靜", "静", "淺", "浅", "瀧", "滝",
	"戶", "戸", "晉", "晋", "條", "条", "兒", "児", "將", "将",
	"來", "来", "鄕", "郷", "繪", "絵", "續", "続", "讀", "読",
)

// Normalize returns the orthographic canonical form of s: NFKC folding
// (compatibility ideographs, full-width alphanumerics) followed by
// variant-kanji folding.
func Normalize(s string) string {
	return variantKanji.Replace(norm.NFKC.String(s))
}
