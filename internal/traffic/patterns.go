package traffic

// Patterns is evaluated top to bottom and the first substring hit wins, so
// named tokens must precede the generic ones they contain ("discordbot"
// before "bot"). Tokens are lowercase.
var Patterns = []Pattern{
	// Link unfurlers and social platforms.
	{Token: "facebookexternalhit", Category: CategorySocialCrawler, Crawler: "Facebook"},
	{Token: "facebookcatalog", Category: CategorySocialCrawler, Crawler: "Facebook"},
	{Token: "facebot", Category: CategorySocialCrawler, Crawler: "Facebook"},
	{Token: "meta-externalagent", Category: CategorySocialCrawler, Crawler: "Meta"},
	{Token: "twitterbot", Category: CategorySocialCrawler, Crawler: "Twitter"},
	{Token: "linkedinbot", Category: CategorySocialCrawler, Crawler: "LinkedIn"},
	{Token: "pinterestbot", Category: CategorySocialCrawler, Crawler: "Pinterest"},
	{Token: "pinterest/0.", Category: CategorySocialCrawler, Crawler: "Pinterest"},
	{Token: "whatsapp", Category: CategorySocialCrawler, Crawler: "WhatsApp"},
	{Token: "telegrambot", Category: CategorySocialCrawler, Crawler: "Telegram"},
	{Token: "slackbot", Category: CategorySocialCrawler, Crawler: "Slack"},
	{Token: "slack-imgproxy", Category: CategorySocialCrawler, Crawler: "Slack"},
	{Token: "discordbot", Category: CategorySocialCrawler, Crawler: "Discord"},
	{Token: "redditbot", Category: CategorySocialCrawler, Crawler: "Reddit"},
	{Token: "skypeuripreview", Category: CategorySocialCrawler, Crawler: "Skype"},
	{Token: "vkshare", Category: CategorySocialCrawler, Crawler: "VK"},
	{Token: "embedly", Category: CategorySocialCrawler, Crawler: "Embedly"},
	{Token: "iframely", Category: CategorySocialCrawler, Crawler: "Iframely"},
	{Token: "quora link preview", Category: CategorySocialCrawler, Crawler: "Quora"},
	{Token: "tumblr", Category: CategorySocialCrawler, Crawler: "Tumblr"},
	{Token: "mastodon", Category: CategorySocialCrawler, Crawler: "Mastodon"},

	// Named search engines.
	{Token: "googlebot", Category: CategorySearchCrawler, Crawler: "Google"},
	{Token: "google-inspectiontool", Category: CategorySearchCrawler, Crawler: "Google"},
	{Token: "adsbot-google", Category: CategorySearchCrawler, Crawler: "Google"},
	{Token: "mediapartners-google", Category: CategorySearchCrawler, Crawler: "Google"},
	{Token: "bingbot", Category: CategorySearchCrawler, Crawler: "Bing"},
	{Token: "bingpreview", Category: CategorySearchCrawler, Crawler: "Bing"},
	{Token: "msnbot", Category: CategorySearchCrawler, Crawler: "Bing"},
	{Token: "yandex", Category: CategorySearchCrawler, Crawler: "Yandex"},
	{Token: "baiduspider", Category: CategorySearchCrawler, Crawler: "Baidu"},
	{Token: "duckduckbot", Category: CategorySearchCrawler, Crawler: "DuckDuckGo"},
	{Token: "slurp", Category: CategorySearchCrawler, Crawler: "Yahoo"},
	{Token: "applebot", Category: CategorySearchCrawler, Crawler: "Apple"},
	{Token: "sogou", Category: CategorySearchCrawler, Crawler: "Sogou"},
	{Token: "exabot", Category: CategorySearchCrawler, Crawler: "Exalead"},
	{Token: "petalbot", Category: CategorySearchCrawler, Crawler: "Petal"},
	{Token: "seznambot", Category: CategorySearchCrawler, Crawler: "Seznam"},
	{Token: "yeti/", Category: CategorySearchCrawler, Crawler: "Naver"},
	{Token: "ia_archiver", Category: CategorySearchCrawler, Crawler: "Alexa"},

	// Utilities and automation. Recognised as bots but never escalated.
	{Token: "curl/", Category: CategoryGenericBot, Crawler: "curl"},
	{Token: "wget/", Category: CategoryGenericBot, Crawler: "Wget"},
	{Token: "python-requests", Category: CategoryGenericBot, Crawler: "python-requests"},
	{Token: "python-urllib", Category: CategoryGenericBot, Crawler: "urllib"},
	{Token: "go-http-client", Category: CategoryGenericBot, Crawler: "Go"},
	{Token: "okhttp", Category: CategoryGenericBot, Crawler: "OkHttp"},
	{Token: "axios/", Category: CategoryGenericBot, Crawler: "axios"},
	{Token: "node-fetch", Category: CategoryGenericBot, Crawler: "node-fetch"},
	{Token: "postmanruntime", Category: CategoryGenericBot, Crawler: "Postman"},
	{Token: "headlesschrome", Category: CategoryGenericBot, Crawler: "HeadlessChrome"},
	{Token: "chrome-lighthouse", Category: CategoryGenericBot, Crawler: "Lighthouse"},
	{Token: "phantomjs", Category: CategoryGenericBot, Crawler: "PhantomJS"},
	{Token: "pingdom", Category: CategoryGenericBot, Crawler: "Pingdom"},
	{Token: "uptimerobot", Category: CategoryGenericBot, Crawler: "UptimeRobot"},

	// Generic crawler tokens. Anything self-describing as a bot is treated as
	// a search-style crawler and gets metadata. A bare "bot" must end a
	// product token ("AhrefsBot/7.0") so device names like "CUBOT X30" stay
	// human.
	{Token: "bot", Category: CategorySearchCrawler, Terminated: true},
	{Token: "crawler", Category: CategorySearchCrawler},
	{Token: "spider", Category: CategorySearchCrawler},
	{Token: "crawl", Category: CategorySearchCrawler},
}
