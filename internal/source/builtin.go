package source

const (
	SchoolSKKU    = "성균관대학교"
	SchoolSNU     = "서울대학교"
	SchoolKAIST   = "카이스트"
	SchoolYonsei  = "연세대학교"
	SchoolHanyang = "한양대학교"
)

// kaistReadArticle matches javascript:readArticle('recruit', '123', '1', '', '', '') calls.
const kaistReadArticle = `javascript:\s*readArticle\(\s*'([^']+)'\s*,\s*'([^']+)'\s*,\s*'([^']+)'\s*,\s*'([^']*)'\s*,\s*'([^']*)'\s*,\s*'([^']+)'\s*\)`

const kaistArticleURL = "https://cs.kaist.ac.kr/board/view?bbs_id={bbs_id}&bbs_sn={bbs_sn}&page={page}&skey={skey}&svalue={svalue}&menu={menu}"

// Builtin returns the boards crawled when no sources file is configured.
func Builtin() []Definition {
	kaistLink, err := NewScriptLink(kaistReadArticle, kaistArticleURL, "bbs_id", "bbs_sn", "page", "skey", "svalue", "menu")
	if err != nil {
		panic(err)
	}

	return []Definition{
		{
			Key:     "kaist",
			School:  SchoolKAIST,
			BaseURL: "https://cs.kaist.ac.kr/bbs/recruit",
			TitleSelectors: Selectors{
				"#container > div.inner > div.eval_tb > table > tbody > tr:nth-child(3) > td.line2_2_txt > a",
				"div.eval_tb table tbody tr td.line2_2_txt > a",
			},
			DateSelectors: Selectors{
				"#container > div.inner > div.eval_tb > table > tbody > tr:nth-child(3) > td:nth-child(4)",
				"div.eval_tb table tbody tr:has(td.line2_2_txt > a) > td:nth-child(4)",
			},
			ContentSelectors: Selectors{"#container > div.inner > div > div.viewDetail", "div.viewDetail"},
			MinTitleLength:   2,
			Resolver:         kaistLink,
		},
		{
			Key:     "skku-sw",
			Group:   "skku",
			School:  SchoolSKKU,
			BaseURL: "https://sw.skku.edu/sw/notice.do?mode=list&srCategoryId1=1585&srSearchKey=&srSearchVal=",
			TitleSelectors: Selectors{
				"#jwxe_main_content > div > div > div.board-name-list.board-wrap > ul > li:nth-child(1) > dl > dt > a",
				"div.board-name-list.board-wrap > ul > li > dl > dt > a",
			},
			DateSelectors: Selectors{
				"#jwxe_main_content > div > div > div.board-name-list.board-wrap > ul > li:nth-child(1) > dl > dd > ul > li:nth-child(3)",
				"div.board-name-list.board-wrap > ul > li:has(dl > dt > a) > dl > dd > ul > li:nth-child(3)",
			},
			ContentSelectors: Selectors{"div.board-view-content-wrap.board-view-txt"},
			MinTitleLength:   2,
			Resolver:         HrefLink{},
		},
		{
			Key:     "skku-cse",
			Group:   "skku",
			School:  SchoolSKKU,
			BaseURL: "https://cse.skku.edu/cse/notice.do?mode=list&srCategoryId1=1585&srSearchKey=&srSearchVal=",
			TitleSelectors: Selectors{
				"#jwxe_main_content > div > div > div.board-name-list.board-wrap > ul > li:nth-child(8) > dl > dt > a",
				"div.board-name-list.board-wrap > ul > li > dl > dt > a",
			},
			DateSelectors: Selectors{
				"#jwxe_main_content > div > div > div.board-name-list.board-wrap > ul > li:nth-child(8) > dl > dd > ul > li:nth-child(3)",
				"div.board-name-list.board-wrap > ul > li:has(dl > dt > a) > dl > dd > ul > li:nth-child(3)",
			},
			ContentSelectors: Selectors{"div.board-view-content-wrap.board-view-txt"},
			MinTitleLength:   2,
			Resolver:         HrefLink{},
		},
		{
			Key:     "snu",
			School:  SchoolSNU,
			BaseURL: "https://cse.snu.ac.kr/community/notice?tag=%EC%B1%84%EC%9A%A9%EC%A0%95%EB%B3%B4",
			TitleSelectors: Selectors{
				"html > body > main > div > div:nth-child(2) > div:nth-child(2) > ul > li:nth-child(1) > span:nth-child(2) > a",
				"main ul > li > span > a",
			},
			DateSelectors: Selectors{
				"body > main > div > div.relative.grow.bg-white > div.mb-10.mt-9.border-y.border-neutral-200 > ul > li:nth-child(1) > span.tracking-wide",
				"main ul > li:has(span > a) > span.tracking-wide",
			},
			ContentSelectors: Selectors{"div.flow-root.mb-10 > div > p", "div.flow-root.mb-10"},
			// the list also links tag chips; real titles are longer
			MinTitleLength: 5,
			Resolver:       HrefLink{},
		},
		{
			Key:     "yonsei",
			School:  SchoolYonsei,
			BaseURL: "https://cs.yonsei.ac.kr/csai/board/jobInfo.do",
			TitleSelectors: Selectors{
				"#jwxe_main_content > div > div > div > table > tbody > tr:nth-child(1) > td.text-left > div.c-board-title-wrap > a",
				"table tbody tr td.text-left div.c-board-title-wrap > a",
			},
			DateSelectors: Selectors{
				"#jwxe_main_content > div > div > div > table > tbody > tr:nth-child(1) > td:nth-child(5)",
				"table tbody tr:has(td.text-left div.c-board-title-wrap > a) > td:nth-child(5)",
			},
			ContentSelectors: Selectors{
				"#jwxe_main_content > div > div.board-wrap > div > dl.board-write-box.board-write-box-v03 > dd > div",
				"dl.board-write-box dd > div",
			},
			MinTitleLength: 2,
			Resolver:       HrefLink{},
		},
		{
			Key:     "hanyang",
			School:  SchoolHanyang,
			BaseURL: "https://cs.hanyang.ac.kr/board/job_board.php",
			TitleSelectors: Selectors{
				"#content_box > div > table > tbody > tr:nth-child(1) > td.left > a",
			},
			DateSelectors: Selectors{
				"#content_box > div > table > tbody > tr:nth-child(1) > td:nth-child(5)",
			},
			ContentSelectors: Selectors{
				"#content_box > div > table.bbs_view > tbody > tr:nth-child(3) > td > table:nth-child(2) > tbody > tr > td",
				"table.bbs_view",
			},
			MinTitleLength: 2,
			Resolver:       HrefLink{},
		},
	}
}
