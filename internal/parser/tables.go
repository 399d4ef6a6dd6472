package parser

import "sort"

// categoryRule binds one category to the phrases that select it. Rules are
// evaluated top to bottom and the first phrase found in the normalized text
// decides the category, so more specific rules must come before generic ones:
// "졸업 요건까지 들은 과목" is a graduation question even though it also
// mentions courses.
type categoryRule struct {
	category Category
	phrases  []string
}

var categoryRules = []categoryRule{
	// Possessive profile phrases outrank everything else so "내 정보 종합"
	// stays a profile question.
	{CategoryStudentInfo, []string{
		"내 정보", "제 정보", "내 현황", "제 현황", "내 프로필", "내 학적",
	}},
	{CategorySummary, []string{
		"종합", "전체 현황", "전반적", "총괄", "한눈에", "모든 정보",
	}},
	{CategoryGraduation, []string{
		"졸업 요건", "졸업요건", "졸업 학점", "졸업학점", "졸업 기준",
		"졸업하려면", "졸업까지", "졸업 가능", "졸업",
	}},
	{CategoryRecommendation, []string{
		"추천", "로드맵", "수강 계획", "수강계획", "뭘 들을", "뭐 들을",
		"들을 만한", "들으면 좋을",
	}},
	{CategoryEnrollmentHistory, []string{
		"수강 이력", "수강이력", "이수 내역", "이수내역", "이수한", "이수",
		"들은 과목", "들었던", "수강한", "성적", "받은 과목", "취득 학점",
	}},
	{CategoryCourseSearch, []string{
		"강의", "강좌", "과목 검색", "개설", "시간표", "교수님", "교수",
		"과목 알려", "과목 찾", "어떤 과목",
	}},
	{CategoryStudentInfo, []string{
		"학적", "프로필", "학번", "몇 학년", "무슨 과", "어느 과", "소속",
	}},
}

// departmentSynonyms maps every way users write a department to its
// canonical names in course records. A canonical spelling maps to itself so
// expansion is a single lookup.
var departmentSynonyms = map[string][]string{
	"컴공":      {"컴퓨터공학과", "컴퓨터공학부"},
	"컴퓨터":     {"컴퓨터공학과", "컴퓨터공학부"},
	"컴퓨터공학":   {"컴퓨터공학과", "컴퓨터공학부"},
	"컴퓨터공학과":  {"컴퓨터공학과", "컴퓨터공학부"},
	"컴퓨터공학부":  {"컴퓨터공학과", "컴퓨터공학부"},
	"소프트웨어":   {"소프트웨어학과", "소프트웨어학부"},
	"소웨":      {"소프트웨어학과", "소프트웨어학부"},
	"심리":      {"심리학과"},
	"심리학":     {"심리학과"},
	"심리학과":    {"심리학과"},
	"경영":      {"경영학과", "경영학부"},
	"경영학":     {"경영학과", "경영학부"},
	"경영학과":    {"경영학과", "경영학부"},
	"전자":      {"전자공학과", "전자공학부"},
	"전자공학":    {"전자공학과", "전자공학부"},
	"전자공학과":   {"전자공학과", "전자공학부"},
	"경제":      {"경제학과"},
	"경제학":     {"경제학과"},
	"경제학과":    {"경제학과"},
	"통계":      {"통계학과"},
	"통계학과":    {"통계학과"},
	"수학":      {"수학과"},
	"수학과":     {"수학과"},
	"영문":      {"영어영문학과"},
	"영어영문":    {"영어영문학과"},
	"영어영문학과":  {"영어영문학과"},
	"교양":      {"교양교육원"},
	"교양교육원":   {"교양교육원"},
}

// departmentMentions holds the synonym keys longest first, equal lengths in
// lexicographic order, so the most specific mention wins and the same text
// always yields the same department slot.
var departmentMentions = func() []string {
	mentions := make([]string, 0, len(departmentSynonyms))
	for mention := range departmentSynonyms {
		mentions = append(mentions, mention)
	}
	sort.Slice(mentions, func(i, j int) bool {
		if len(mentions[i]) != len(mentions[j]) {
			return len(mentions[i]) > len(mentions[j])
		}
		return mentions[i] < mentions[j]
	})
	return mentions
}()

// courseTypes are the enrollment classifications stored on course and
// enrollment rows. Longer names first so 전공필수 wins over 전공.
var courseTypes = []string{
	"전공필수", "전공선택", "교양필수", "교양선택", "일반선택", "전공", "교양",
}

// subjectKeywords are topic words lifted into the keyword slot for course
// search when the user did not quote a title.
var subjectKeywords = []string{
	"자료구조", "알고리즘", "운영체제", "데이터베이스", "네트워크",
	"인공지능", "머신러닝", "기계학습", "프로그래밍", "컴퓨터구조",
	"소프트웨어공학", "통계", "미적분", "선형대수", "심리", "마케팅",
	"회계", "경제", "영어", "글쓰기",
}

// ExpandDepartment resolves a department mention to the canonical names used
// in course records. The mention itself is returned when no synonym is known.
func ExpandDepartment(mention string) []string {
	if names, ok := departmentSynonyms[mention]; ok {
		return names
	}
	return []string{mention}
}
