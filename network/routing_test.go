package network_test

import (
	"errors"

	network "github.com/manelneto/ledger/network"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

// contactWithID builds a contact whose ID starts with the given bytes.
func contactWithID(port uint32, idPrefix ...byte) network.Contact {
	var id network.NodeID
	copy(id[:], idPrefix)
	return network.Contact{ID: id, IPAddress: "127.0.0.1", Port: port}
}

var _ = Describe("RoutingTable", func() {
	var (
		rtbl  *network.BucketRoutingTable
		pivot network.NodeID

		Setting_BucketSize = 4
	)

	BeforeEach(func() {
		// Pivot with a zero ID keeps bucket indices easy to reason
		// about: a contact's bucket is the number of leading zero bits
		// of its own ID.
		pivot = network.NodeID{}
		rtbl = network.CreateBucketRoutingTable(pivot, Setting_BucketSize)
	})

	It("should reject the pivot's own ID", func() {
		self := network.Contact{ID: pivot, IPAddress: "127.0.0.1", Port: 9000}
		Expect(rtbl.Touch(self)).To(Equal(network.ErrorSelfContact))
	})

	It("should add new contacts and refresh existing ones without duplication", func() {
		contact := contactWithID(9001, 0x80, 0x01)
		Expect(rtbl.Touch(contact)).To(BeNil())
		Expect(rtbl.Touch(contact)).To(BeNil())

		closest, err := rtbl.GetClosestNodes(contact.ID, 10)
		Expect(err).To(BeNil())
		Expect(closest).To(HaveLen(1))
	})

	It("should remove the node if it exists or return an error", func() {
		contact := contactWithID(9002, 0x80, 0x02)
		Expect(rtbl.Touch(contact)).To(BeNil())
		Expect(rtbl.Remove(contact.ID)).To(BeNil())
		Expect(rtbl.Remove(contact.ID)).To(Equal(network.ErrorUnknownNode))
	})

	It("should keep the least recently seen contact at the head", func() {
		first := contactWithID(9010, 0x80, 0x10)
		second := contactWithID(9011, 0x80, 0x11)
		third := contactWithID(9012, 0x80, 0x12)
		fourth := contactWithID(9013, 0x80, 0x13)
		for _, contact := range []network.Contact{first, second, third, fourth} {
			Expect(rtbl.Touch(contact)).To(BeNil())
		}

		// Refreshing the first contact moves it to the tail, so the
		// next full-bucket insertion nominates the second for probing.
		Expect(rtbl.Touch(first)).To(BeNil())

		overflow := contactWithID(9014, 0x80, 0x14)
		touchErr := rtbl.Touch(overflow)
		var fullErr *network.TableIsFullError
		Expect(errors.As(touchErr, &fullErr)).To(BeTrue())
		Expect(fullErr.LeastRecentlySeenNode.ID).To(Equal(second.ID))
	})

	It("should promote a pending replacement when a slot frees up", func() {
		contacts := []network.Contact{
			contactWithID(9020, 0x80, 0x20),
			contactWithID(9021, 0x80, 0x21),
			contactWithID(9022, 0x80, 0x22),
			contactWithID(9023, 0x80, 0x23),
		}
		for _, contact := range contacts {
			Expect(rtbl.Touch(contact)).To(BeNil())
		}
		replacement := contactWithID(9024, 0x80, 0x24)
		rtbl.AddPendingReplacement(replacement)

		Expect(rtbl.Remove(contacts[1].ID)).To(BeNil())

		closest, err := rtbl.GetClosestNodes(replacement.ID, 10)
		Expect(err).To(BeNil())
		ids := make([]network.NodeID, 0, len(closest))
		for _, contact := range closest {
			ids = append(ids, contact.ID)
		}
		Expect(ids).To(ContainElement(replacement.ID))
		Expect(ids).NotTo(ContainElement(contacts[1].ID))
	})

	It("should return the closest nodes sorted by XOR distance", func() {
		near := contactWithID(9030, 0x00, 0x00, 0x01)
		middle := contactWithID(9031, 0x00, 0x10)
		far := contactWithID(9032, 0xF0)
		for _, contact := range []network.Contact{far, near, middle} {
			Expect(rtbl.Touch(contact)).To(BeNil())
		}

		closest, err := rtbl.GetClosestNodes(pivot, 10)
		Expect(err).To(BeNil())
		Expect(closest).To(HaveLen(3))
		Expect(closest[0].ID).To(Equal(near.ID))
		Expect(closest[1].ID).To(Equal(middle.ID))
		Expect(closest[2].ID).To(Equal(far.ID))
	})

	It("should never grow a bucket past its capacity and never hold duplicates", func() {
		// All of these land in bucket 0 (high bit differs from the
		// pivot); only the first Setting_BucketSize fit.
		for low := byte(0); low < 50; low++ {
			rtbl.Touch(contactWithID(uint32(9100)+uint32(low), 0x80, low))
		}
		gathered, err := rtbl.GetClosestNodes(pivot, 1000)
		Expect(err).To(BeNil())
		Expect(len(gathered)).To(Equal(Setting_BucketSize))

		seen := make(map[network.NodeID]bool)
		for _, contact := range gathered {
			Expect(seen[contact.ID]).To(BeFalse())
			Expect(contact.ID).NotTo(Equal(pivot))
			seen[contact.ID] = true
		}
	})
})
